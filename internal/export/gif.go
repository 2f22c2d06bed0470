package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"os"

	"github.com/san-kum/firesim/internal/fluid"
	"github.com/san-kum/firesim/internal/render"
)

var ErrNoFrames = errors.New("export: no frames recorded")

// FirePalette samples the render ramp at 16 temperatures and 16 intensities,
// composited over black, giving a 256 colour GIF palette.
func FirePalette(p render.Palette) color.Palette {
	pal := make(color.Palette, 0, 256)
	for ti := 0; ti < 16; ti++ {
		temp := float32(ti) / 15 * 20
		for ii := 0; ii < 16; ii++ {
			intensity := float32(ii) / 15
			pal = append(pal, render.OverBlack(p.Color(temp, intensity)))
		}
	}
	return pal
}

// GIFRecorder captures every Every-th tick as an animation frame. It
// implements sim.Observer.
type GIFRecorder struct {
	Palette render.Palette
	Every   int
	Scale   int
	// Delay between frames in hundredths of a second.
	Delay int
	// MaxFrames stops recording once reached; zero means unlimited.
	MaxFrames int

	colors color.Palette
	snap   fluid.Snapshot
	img    *image.NRGBA
	anim   gif.GIF
}

func NewGIFRecorder(p render.Palette, every, scale, delay int) *GIFRecorder {
	if every < 1 {
		every = 1
	}
	if scale < 1 {
		scale = 1
	}
	return &GIFRecorder{
		Palette: p,
		Every:   every,
		Scale:   scale,
		Delay:   delay,
		colors:  FirePalette(p),
	}
}

func (r *GIFRecorder) OnTick(tick int, g *fluid.Grid) {
	if tick%r.Every != 0 {
		return
	}
	if r.MaxFrames > 0 && len(r.anim.Image) >= r.MaxFrames {
		return
	}
	g.Snapshot(&r.snap)
	r.Add(&r.snap)
}

// Add renders s and appends it as a frame.
func (r *GIFRecorder) Add(s *fluid.Snapshot) {
	r.img = r.Palette.Render(s, r.img)
	src := Scale(r.img, r.Scale)

	// composite over black before quantizing
	opaque := image.NewRGBA(src.Bounds())
	draw.Draw(opaque, opaque.Bounds(), image.Black, image.Point{}, draw.Src)
	draw.Draw(opaque, opaque.Bounds(), src, src.Bounds().Min, draw.Over)

	frame := image.NewPaletted(src.Bounds(), r.colors)
	draw.Draw(frame, frame.Bounds(), opaque, image.Point{}, draw.Src)

	r.anim.Image = append(r.anim.Image, frame)
	r.anim.Delay = append(r.anim.Delay, r.Delay)
}

func (r *GIFRecorder) Frames() int { return len(r.anim.Image) }

func (r *GIFRecorder) Reset() {
	r.anim = gif.GIF{}
}

func (r *GIFRecorder) Write(w io.Writer) error {
	if len(r.anim.Image) == 0 {
		return ErrNoFrames
	}
	r.anim.LoopCount = 0
	return gif.EncodeAll(w, &r.anim)
}

func (r *GIFRecorder) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
