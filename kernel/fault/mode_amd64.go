package fault

// decodeMode is the x86asm decoding mode of the running core.
const decodeMode = 64
