package xcorr

import (
	"testing"
)

func TestGenerateSamplesDeterministic(t *testing.T) {
	data1 := GenerateSamples[uint32](100, 12345, 16)
	data2 := GenerateSamples[uint32](100, 12345, 16)

	for i := range data1 {
		if data1[i] != data2[i] {
			t.Fatal("GenerateSamples is not deterministic")
		}
	}

	data3 := GenerateSamples[uint32](100, 54321, 16)
	same := true
	for i := range data1 {
		if data1[i] != data3[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds should produce different data")
	}

	for i, v := range data1 {
		if v >= 16 {
			t.Errorf("value %d out of range [0, 16): %d", i, v)
		}
	}
}

func TestGenerateScene(t *testing.T) {
	scene := GenerateScene[uint8](7, 13, 1, 4)
	if len(scene) != 7*13 {
		t.Fatalf("len = %d, want %d", len(scene), 7*13)
	}
	for i, v := range scene {
		if v >= 4 {
			t.Errorf("scene[%d] = %d, want < 4", i, v)
		}
	}
}

func TestShiftScene(t *testing.T) {
	const rows, cols, disparity = 3, 8, 2
	src := GenerateScene[uint32](rows, cols, 99, 16)
	dst := ShiftScene(src, rows, cols, disparity)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			want := src[r*cols]
			if c >= disparity {
				want = src[r*cols+c-disparity]
			}
			if dst[r*cols+c] != want {
				t.Errorf("dst[%d][%d] = %d, want %d", r, c, dst[r*cols+c], want)
			}
		}
	}
}

func TestOnesColumn(t *testing.T) {
	m := OnesColumn[uint32](3, 10, 6)
	for r := 0; r < 3; r++ {
		for c := 0; c < 10; c++ {
			want := uint32(0)
			if c == 6 {
				want = 1
			}
			if m[r*10+c] != want {
				t.Errorf("m[%d][%d] = %d, want %d", r, c, m[r*10+c], want)
			}
		}
	}
}
