package bench

// Format names a real-world matrix geometry, rows by columns.
type Format struct {
	Name string
	Rows int
	Cols int
}

// DefaultCatalog returns the fixed catalog of real-world video formats
// the formats harness sweeps instead of the synthetic size ladder.
func DefaultCatalog() []Format {
	return []Format{
		{"QVGA", 240, 320},
		{"VGA", 480, 640},
		{"SVGA", 600, 800},
		{"XGA", 768, 1024},
		{"HD720", 720, 1280},
		{"HD1080", 1080, 1920},
		{"QHD", 1440, 2560},
		{"UHD4K", 2160, 3840},
	}
}
