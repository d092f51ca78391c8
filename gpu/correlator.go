package gpu

import (
	"fmt"

	"github.com/openfluke/webgpu/wgpu"
)

// workgroup edge for the 2-D dispatch over the destination grid.
const workgroupEdge = 16

// Correlator holds the device resources for one disparity-search
// geometry: fixed source extents and window width, reusable across any
// number of searches over matrices of that shape.
//
// Samples are u32 on the device. The shader reproduces the in-process
// engine's scan order and its greater-or-equal tie rule, so output for
// matching inputs is bit-identical to the root package's kernels.
type Correlator struct {
	Rows   int // source rows
	Cols   int // source columns
	Window int // correlation window width, odd

	pipeline  *wgpu.ComputePipeline
	bindGroup *wgpu.BindGroup

	SrcABuffer    *wgpu.Buffer
	SrcBBuffer    *wgpu.Buffer
	DestBuffer    *wgpu.Buffer
	StagingBuffer *wgpu.Buffer

	destRows, destCols int
}

// NewCorrelator describes a correlator for rows×cols sources searched
// with a window-wide kernel. No device resources are touched until
// AllocateBuffers.
func NewCorrelator(window, rows, cols int) *Correlator {
	return &Correlator{
		Rows:     rows,
		Cols:     cols,
		Window:   window,
		destRows: rows - (window - 1),
		destCols: cols - (window - 1),
	}
}

// DestDims returns the destination extents the correlator produces.
func (c *Correlator) DestDims() (destRows, destCols int) {
	return c.destRows, c.destCols
}

// AllocateBuffers creates the storage buffers for both sources and the
// destination, plus a mappable staging buffer for readback.
func (c *Correlator) AllocateBuffers(ctx *Context, labelPrefix string) error {
	var err error

	srcBytes := uint64(c.Rows * c.Cols * 4)
	destBytes := uint64(c.destRows * c.destCols * 4)

	c.SrcABuffer, err = ctx.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: labelPrefix + "_SrcA",
		Size:  srcBytes,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}

	c.SrcBBuffer, err = ctx.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: labelPrefix + "_SrcB",
		Size:  srcBytes,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}

	c.DestBuffer, err = ctx.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: labelPrefix + "_Dest",
		Size:  destBytes,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return err
	}

	c.StagingBuffer, err = ctx.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: labelPrefix + "_Staging",
		Size:  destBytes,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	return err
}

// GenerateShader renders the direct search as WGSL with the geometry
// baked in as constants. One invocation owns one destination cell;
// invocations past the destination edge return without writing.
func (c *Correlator) GenerateShader() string {
	shift := c.Window / 2

	return fmt.Sprintf(`
		@group(0) @binding(0) var<storage, read> src1 : array<u32>;
		@group(0) @binding(1) var<storage, read> src2 : array<u32>;
		@group(0) @binding(2) var<storage, read_write> dest : array<u32>;

		const COLS: u32 = %du;
		const K: u32 = %du;
		const SHIFT: u32 = %du;
		const DEST_ROWS: u32 = %du;
		const DEST_COLS: u32 = %du;

		@compute @workgroup_size(%d, %d)
		fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
			let col = gid.x;
			let row = gid.y;
			if (row >= DEST_ROWS || col >= DEST_COLS) { return; }

			let centre = col + SHIFT;
			var best_score: u32 = 0u;
			var best_offset: u32 = SHIFT;

			// Candidates scan left to right; a score equal to the best
			// so far replaces it, handing ties to the later candidate.
			for (var i: u32 = SHIFT; i < COLS - SHIFT; i++) {
				var score: u32 = 0u;
				for (var j: u32 = 0u; j < K; j++) {
					let a_off = (row + j) * COLS + i - SHIFT;
					let b_off = (row + j) * COLS + centre - SHIFT;
					for (var m: u32 = 0u; m < K; m++) {
						score += src1[a_off + m] * src2[b_off + m];
					}
				}
				if (i == SHIFT || score >= best_score) {
					best_score = score;
					best_offset = i;
				}
			}

			dest[row * DEST_COLS + col] = best_offset;
		}
	`, c.Cols, c.Window, shift, c.destRows, c.destCols, workgroupEdge, workgroupEdge)
}

// Compile builds the compute pipeline from the generated shader.
func (c *Correlator) Compile(ctx *Context, labelPrefix string) error {
	mod, err := ctx.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          labelPrefix + "_Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: c.GenerateShader()},
	})
	if err != nil {
		return err
	}
	c.pipeline, err = ctx.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   labelPrefix + "_Pipe",
		Compute: wgpu.ProgrammableStageDescriptor{Module: mod, EntryPoint: "main"},
	})
	return err
}

// CreateBindGroup binds the source and destination buffers to the
// pipeline's layout.
func (c *Correlator) CreateBindGroup(ctx *Context, labelPrefix string) error {
	var err error
	c.bindGroup, err = ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  labelPrefix + "_Bind",
		Layout: c.pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: c.SrcABuffer, Size: c.SrcABuffer.GetSize()},
			{Binding: 1, Buffer: c.SrcBBuffer, Size: c.SrcBBuffer.GetSize()},
			{Binding: 2, Buffer: c.DestBuffer, Size: c.DestBuffer.GetSize()},
		},
	})
	return err
}

// Upload writes both source matrices into their device buffers.
func (c *Correlator) Upload(ctx *Context, src1, src2 []uint32) {
	ctx.Queue.WriteBuffer(c.SrcABuffer, 0, wgpu.ToBytes(src1[:c.Rows*c.Cols]))
	ctx.Queue.WriteBuffer(c.SrcBBuffer, 0, wgpu.ToBytes(src2[:c.Rows*c.Cols]))
}

// Dispatch records the search into a compute pass, one workgroup grid
// covering the destination with overhang.
func (c *Correlator) Dispatch(pass *wgpu.ComputePassEncoder) {
	pass.SetPipeline(c.pipeline)
	pass.SetBindGroup(0, c.bindGroup, nil)
	pass.DispatchWorkgroups(
		uint32((c.destCols+workgroupEdge-1)/workgroupEdge),
		uint32((c.destRows+workgroupEdge-1)/workgroupEdge),
		1,
	)
}

// ReadResult copies the destination through the staging buffer and maps
// it back to the host, blocking until the device has finished.
func (c *Correlator) ReadResult(ctx *Context) ([]uint32, error) {
	destBytes := uint64(c.destRows * c.destCols * 4)

	enc, err := ctx.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder: %v", err)
	}
	enc.CopyBufferToBuffer(c.DestBuffer, 0, c.StagingBuffer, 0, destBytes)
	cmd, err := enc.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to finish command: %v", err)
	}
	ctx.Queue.Submit(cmd)

	done := make(chan struct{})
	var mapErr error

	err = c.StagingBuffer.MapAsync(wgpu.MapModeRead, 0, destBytes, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("map status: %d", status)
		}
		close(done)
	})
	if err != nil {
		return nil, fmt.Errorf("MapAsync failed: %v", err)
	}

Loop:
	for {
		ctx.Device.Poll(true, nil)
		select {
		case <-done:
			break Loop
		default:
		}
	}

	if mapErr != nil {
		return nil, mapErr
	}

	data := c.StagingBuffer.GetMappedRange(0, uint(destBytes))
	if data == nil {
		return nil, fmt.Errorf("failed to get mapped range")
	}
	defer c.StagingBuffer.Unmap()

	result := make([]uint32, c.destRows*c.destCols)
	copy(result, wgpu.FromBytes[uint32](data))
	return result, nil
}

// Cleanup releases every device resource the correlator holds.
func (c *Correlator) Cleanup() {
	bufs := []*wgpu.Buffer{c.SrcABuffer, c.SrcBBuffer, c.DestBuffer, c.StagingBuffer}
	for _, b := range bufs {
		if b != nil {
			b.Destroy()
		}
	}
	if c.pipeline != nil {
		c.pipeline.Release()
	}
	if c.bindGroup != nil {
		c.bindGroup.Release()
	}
}

// Correlate runs one full search on the device: allocate, compile,
// upload, dispatch, read back, release. The returned map matches the
// in-process engine's output bit for bit.
func Correlate(src1, src2 []uint32, window, rows, cols int) ([]uint32, error) {
	ctx, err := GetContext()
	if err != nil {
		return nil, err
	}

	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("source extents %dx%d: must be positive", rows, cols)
	}
	if len(src1) < rows*cols || len(src2) < rows*cols {
		return nil, fmt.Errorf("source slices hold %d and %d samples, extents %dx%d need %d",
			len(src1), len(src2), rows, cols, rows*cols)
	}

	c := NewCorrelator(window, rows, cols)
	if c.destRows < 1 || c.destCols < 1 {
		return nil, fmt.Errorf("window %d leaves an empty destination for %dx%d sources", window, rows, cols)
	}
	defer c.Cleanup()

	if err := c.AllocateBuffers(ctx, "Corr"); err != nil {
		return nil, fmt.Errorf("allocating device buffers: %v", err)
	}
	if err := c.Compile(ctx, "Corr"); err != nil {
		return nil, fmt.Errorf("compiling search shader: %v", err)
	}
	if err := c.CreateBindGroup(ctx, "Corr"); err != nil {
		return nil, fmt.Errorf("binding buffers: %v", err)
	}

	c.Upload(ctx, src1, src2)

	enc, err := ctx.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder: %v", err)
	}
	pass := enc.BeginComputePass(nil)
	c.Dispatch(pass)
	pass.End()
	cmd, err := enc.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to finish command: %v", err)
	}
	ctx.Queue.Submit(cmd)

	return c.ReadResult(ctx)
}
