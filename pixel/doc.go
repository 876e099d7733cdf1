// Package pixel contains pixel storage and image types for the packed pixel
// layouts used by framebuffer devices.
//
// The image types wrap a [Buffer], so they can be laid over memory that is
// owned by someone else, such as a memory mapped framebuffer.
package pixel
