package configfile

func copyFilePermissions(src, dst string) {
	// TODO: Copy permissions from src to dst on Windows.
}
