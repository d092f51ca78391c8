package xcorr

import "testing"

func TestGridCoversDestination(t *testing.T) {
	tests := []struct {
		cfg                LaunchConfig
		destRows, destCols int
		want               Dim2
	}{
		{LaunchConfig{TileWidth: 16, TileHeight: 16}, 64, 64, Dim2{X: 4, Y: 4}},
		{LaunchConfig{TileWidth: 16, TileHeight: 16}, 65, 63, Dim2{X: 4, Y: 5}},
		{LaunchConfig{TileWidth: 8, TileHeight: 2}, 5, 30, Dim2{X: 4, Y: 3}},
		{LaunchConfig{TileWidth: 1, TileHeight: 1}, 3, 7, Dim2{X: 7, Y: 3}},
		{LaunchConfig{TileWidth: 32, TileHeight: 4}, 4, 32, Dim2{X: 1, Y: 1}},
	}

	for _, tt := range tests {
		got := tt.cfg.Grid(tt.destRows, tt.destCols)
		if got != tt.want {
			t.Errorf("tile %dx%d over dest %dx%d: grid = %+v, want %+v",
				tt.cfg.TileWidth, tt.cfg.TileHeight, tt.destRows, tt.destCols, got, tt.want)
			continue
		}
		// The grid must cover the destination with at most one
		// overhanging rank of tiles per axis.
		if got.X*tt.cfg.TileWidth < tt.destCols || (got.X-1)*tt.cfg.TileWidth >= tt.destCols {
			t.Errorf("grid X = %d does not minimally cover %d columns", got.X, tt.destCols)
		}
		if got.Y*tt.cfg.TileHeight < tt.destRows || (got.Y-1)*tt.cfg.TileHeight >= tt.destRows {
			t.Errorf("grid Y = %d does not minimally cover %d rows", got.Y, tt.destRows)
		}
	}
}

func TestLaunchConfigValidate(t *testing.T) {
	dev := GetDevice()

	tests := []struct {
		name               string
		cfg                LaunchConfig
		destRows, destCols int
		wantErr            bool
	}{
		{"valid square", LaunchConfig{TileWidth: 16, TileHeight: 16}, 100, 100, false},
		{"valid strip", LaunchConfig{TileWidth: 64, TileHeight: 1}, 1, 64, false},
		{"valid at device limit", LaunchConfig{TileWidth: 32, TileHeight: 32}, 100, 100, false},
		{"zero width", LaunchConfig{TileWidth: 0, TileHeight: 4}, 10, 10, true},
		{"zero height", LaunchConfig{TileWidth: 4, TileHeight: 0}, 10, 10, true},
		{"negative width", LaunchConfig{TileWidth: -2, TileHeight: 4}, 10, 10, true},
		{"over device limit", LaunchConfig{TileWidth: 64, TileHeight: 32}, 100, 100, true},
		{"wider than destination", LaunchConfig{TileWidth: 16, TileHeight: 4}, 10, 10, true},
		{"taller than destination", LaunchConfig{TileWidth: 4, TileHeight: 16}, 10, 10, true},
		{"empty destination", LaunchConfig{TileWidth: 1, TileHeight: 1}, 0, 10, true},
		{"negative destination", LaunchConfig{TileWidth: 1, TileHeight: 1}, -2, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(dev, tt.destRows, tt.destCols)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation to fail closed")
				}
				if !IsGeometryError(err) {
					t.Errorf("error = %v, want geometry kind", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDefaultLaunchConfigClamps(t *testing.T) {
	cfg := DefaultLaunchConfig(200, 300)
	if cfg.TileWidth != DefaultTileEdge || cfg.TileHeight != DefaultTileEdge {
		t.Errorf("unclamped default = %dx%d, want %dx%d", cfg.TileWidth, cfg.TileHeight, DefaultTileEdge, DefaultTileEdge)
	}

	cfg = DefaultLaunchConfig(3, 5)
	if cfg.TileWidth != 5 || cfg.TileHeight != 3 {
		t.Errorf("clamped default = %dx%d, want 5x3", cfg.TileWidth, cfg.TileHeight)
	}
	if err := cfg.Validate(GetDevice(), 3, 5); err != nil {
		t.Errorf("clamped default must validate: %v", err)
	}
}

func TestParseVariant(t *testing.T) {
	if v, err := ParseVariant("direct"); err != nil || v != VariantDirect {
		t.Errorf("ParseVariant(direct) = %v, %v", v, err)
	}
	if v, err := ParseVariant("tiled"); err != nil || v != VariantTiled {
		t.Errorf("ParseVariant(tiled) = %v, %v", v, err)
	}
	if _, err := ParseVariant("warp"); !IsInvalidArgError(err) {
		t.Errorf("ParseVariant(warp) error = %v, want invalid argument", err)
	}
}

func TestParseTimeScope(t *testing.T) {
	for _, s := range []string{"transfers", "full"} {
		if sc, err := ParseTimeScope(s); err != nil || sc != TimeTransfers {
			t.Errorf("ParseTimeScope(%s) = %v, %v", s, sc, err)
		}
	}
	if sc, err := ParseTimeScope("kernel"); err != nil || sc != TimeKernel {
		t.Errorf("ParseTimeScope(kernel) = %v, %v", sc, err)
	}
	if _, err := ParseTimeScope("bogus"); !IsInvalidArgError(err) {
		t.Errorf("ParseTimeScope(bogus) error = %v, want invalid argument", err)
	}
}
