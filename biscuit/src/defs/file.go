package defs

/// Open-flag bits. O_ACCMODE masks out the access-mode sub-field.
const (
	O_RDONLY int = 0x0
	O_WRONLY int = 0x1
	O_RDWR   int = 0x2
	O_ACCMODE int = 0x3

	O_CREAT  int = 0x4
	O_EXCL   int = 0x8
	O_TRUNC  int = 0x10
	O_APPEND int = 0x20
)

/// lseek whence values.
const (
	SEEK_SET int = 0
	SEEK_CUR int = 1
	SEEK_END int = 2
)
