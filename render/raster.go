package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// supersample is the oversampling factor for raster output. The scene is
// rasterized at this multiple of the target size and downsampled with
// Catmull-Rom interpolation for smooth circles and text.
const supersample = 2

// ExportPNG renders a scene to PNG bytes at the given output scale. Scale 2
// produces a retina capture: a 760x520 scene becomes a 1520x1040 image. The
// background is always solid and the content transform is ignored so exports
// capture the full scene regardless of the current pan and zoom.
func ExportPNG(scene *Scene, scale int) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, scene, scale); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePNG renders a scene as PNG to w. See ExportPNG.
func WritePNG(w io.Writer, scene *Scene, scale int) error {
	if scale < 1 {
		scale = 1
	}

	s := float64(scale * supersample)
	large := image.NewRGBA(image.Rect(0, 0, int(scene.Width*s), int(scene.Height*s)))

	r, err := newRaster(large, s)
	if err != nil {
		return err
	}
	r.render(scene)

	final := image.NewRGBA(image.Rect(0, 0, int(scene.Width)*scale, int(scene.Height)*scale))
	draw.CatmullRom.Scale(final, final.Bounds(), large, large.Bounds(), draw.Over, nil)

	return png.Encode(w, final)
}

// raster carries the target image and the internal scale applied to every
// scene coordinate. Faces are created per text size on demand.
type raster struct {
	img   *image.RGBA
	scale float64
	fnt   *opentype.Font
	faces map[int]font.Face
	bg    color.NRGBA
}

func newRaster(img *image.RGBA, scale float64) (*raster, error) {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return &raster{
		img:   img,
		scale: scale,
		fnt:   fnt,
		faces: make(map[int]font.Face),
	}, nil
}

func (r *raster) face(size int) (font.Face, error) {
	if f, ok := r.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(r.fnt, &opentype.FaceOptions{
		Size:    float64(size) * r.scale,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	r.faces[size] = f
	return f, nil
}

func (r *raster) render(scene *Scene) {
	r.bg = parseColor(scene.Background)
	fill := image.NewUniform(r.bg)
	draw.Draw(r.img, r.img.Bounds(), fill, image.Point{}, draw.Src)

	if scene.EmptyMessage != "" {
		r.textCentered(scene.Width/2, scene.Height/2, scene.EmptyMessage, titleFontSize, parseColor(mutedTextColor))
		return
	}

	for i := range scene.Edges {
		r.edge(&scene.Edges[i])
	}
	for i := range scene.Nodes {
		r.node(&scene.Nodes[i])
	}
	for i := range scene.Edges {
		e := &scene.Edges[i]
		if e.Label == "" {
			continue
		}
		c := blendOver(r.bg, parseColor(mutedTextColor), e.LabelOpacity)
		r.textCentered(e.LabelX, e.LabelY, e.Label, edgeLabelSize, c)
	}

	fg := parseColor(foregroundColor)
	muted := parseColor(mutedTextColor)
	if scene.Title != "" {
		r.textLeft(16, 28, scene.Title, titleFontSize, fg)
	}
	if scene.StatBadge != "" {
		r.textLeft(16, scene.Height-12, scene.StatBadge, legendFontSize, muted)
	}
	if len(scene.Legend) > 0 {
		lx := scene.Width - 150
		ly := 24.0
		for _, entry := range scene.Legend {
			r.disc(lx, ly, 5, parseColor(entry.Color))
			r.textLeft(lx+12, ly+4, entry.Label, legendFontSize, fg)
			ly += 20
		}
	}
}

// edge draws a gradient stroke from source color to target color with an
// arrowhead in the target color. Translucency is pre-blended against the
// background since the canvas holds no alpha.
func (r *raster) edge(e *SceneEdge) {
	s := r.scale
	x1, y1 := e.X1*s, e.Y1*s
	x2, y2 := e.X2*s, e.Y2*s

	dx := x2 - x1
	dy := y2 - y1
	dist := math.Hypot(dx, dy)
	if dist < 1 {
		return
	}

	src := parseColor(e.SourceColor)
	dst := parseColor(e.TargetColor)
	thickness := e.Width * s
	halfThick := thickness / 2
	perpX := -dy / dist
	perpY := dx / dist

	steps := math.Max(math.Abs(dx), math.Abs(dy))
	for i := 0.0; i <= steps; i++ {
		t := i / steps
		c := blendOver(r.bg, lerpColor(src, dst, t), e.Opacity)
		cx := x1 + dx*t
		cy := y1 + dy*t
		for offset := -halfThick; offset <= halfThick; offset += 0.5 {
			r.img.Set(int(cx+perpX*offset), int(cy+perpY*offset), c)
		}
	}

	r.arrowhead(x1, y1, x2, y2, blendOver(r.bg, dst, e.Opacity))
}

// arrowhead draws the filled wing triangle at the segment end, matching the
// vector marker shape.
func (r *raster) arrowhead(x1, y1, x2, y2 float64, c color.NRGBA) {
	dx := x2 - x1
	dy := y2 - y1
	dist := math.Hypot(dx, dy)
	if dist < 1 {
		return
	}
	nx := dx / dist
	ny := dy / dist

	arrowLen := 7.0 * r.scale
	arrowWidth := 3.5 * r.scale

	ax1 := x2 - nx*arrowLen + ny*arrowWidth
	ay1 := y2 - ny*arrowLen - nx*arrowWidth
	ax2 := x2 - nx*arrowLen - ny*arrowWidth
	ay2 := y2 - ny*arrowLen + nx*arrowWidth

	for t := 0.0; t <= 1.0; t += 0.05 {
		mx := ax1 + (ax2-ax1)*t
		my := ay1 + (ay2-ay1)*t
		r.line(x2, y2, mx, my, r.scale, c)
	}
}

func (r *raster) node(n *SceneNode) {
	s := r.scale
	cx, cy := n.X*s, n.Y*s
	radius := n.Radius * s
	fill := parseColor(n.Fill)

	if n.Glow {
		r.disc(n.X, n.Y, n.Radius+6, blendOver(r.bg, fill, 0.25*n.Opacity))
		r.disc(n.X, n.Y, n.Radius+3, blendOver(r.bg, fill, 0.45*n.Opacity))
	}

	r.disc(n.X, n.Y, n.Radius, blendOver(r.bg, fill, n.Opacity))

	if n.IsCenter {
		ring := blendOver(r.bg, parseColor(centerRingColor), n.Opacity)
		r.circle(cx, cy, radius+3*s, 1.5*s, ring)
	}

	if n.ShowLabel {
		c := blendOver(r.bg, parseColor(foregroundColor), n.Opacity)
		r.textCentered(n.X, n.Y+n.Radius+float64(labelFontSize)+2, n.Label, labelFontSize, c)
	}
}

// disc fills a solid circle given in scene coordinates.
func (r *raster) disc(x, y, radius float64, c color.NRGBA) {
	s := r.scale
	cx, cy, rad := x*s, y*s, radius*s
	for dy := -rad; dy <= rad; dy++ {
		yNorm := dy / rad
		if yNorm*yNorm > 1 {
			continue
		}
		xExtent := rad * math.Sqrt(1-yNorm*yNorm)
		for dx := -xExtent; dx <= xExtent; dx++ {
			r.img.Set(int(cx+dx), int(cy+dy), c)
		}
	}
}

// circle strokes a circle outline in image coordinates.
func (r *raster) circle(cx, cy, radius, thickness float64, c color.NRGBA) {
	for angle := 0.0; angle < 2*math.Pi; angle += 0.005 {
		nx := math.Cos(angle)
		ny := math.Sin(angle)
		px := cx + radius*nx
		py := cy + radius*ny
		for t := -thickness / 2; t <= thickness/2; t += 0.5 {
			r.img.Set(int(px+nx*t), int(py+ny*t), c)
		}
	}
}

// line draws a straight segment in image coordinates with the given
// thickness.
func (r *raster) line(x1, y1, x2, y2, thickness float64, c color.NRGBA) {
	dx := x2 - x1
	dy := y2 - y1
	dist := math.Hypot(dx, dy)
	if dist < 1 {
		r.img.Set(int(x1), int(y1), c)
		return
	}
	steps := math.Max(math.Abs(dx), math.Abs(dy))
	halfThick := thickness / 2
	perpX := -dy / dist
	perpY := dx / dist
	for i := 0.0; i <= steps; i++ {
		t := i / steps
		cx := x1 + dx*t
		cy := y1 + dy*t
		for offset := -halfThick; offset <= halfThick; offset += 0.5 {
			r.img.Set(int(cx+perpX*offset), int(cy+perpY*offset), c)
		}
	}
}

// textCentered draws text horizontally centered on x in scene coordinates.
func (r *raster) textCentered(x, y float64, text string, size int, c color.NRGBA) {
	face, err := r.face(size)
	if err != nil {
		return
	}
	width := font.MeasureString(face, text).Ceil()
	r.drawString(face, int(x*r.scale)-width/2, int(y*r.scale), text, c)
}

// textLeft draws text anchored at its left edge in scene coordinates.
func (r *raster) textLeft(x, y float64, text string, size int, c color.NRGBA) {
	face, err := r.face(size)
	if err != nil {
		return
	}
	r.drawString(face, int(x*r.scale), int(y*r.scale), text, c)
}

func (r *raster) drawString(face font.Face, x, y int, text string, c color.NRGBA) {
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// ExportSize reports the pixel dimensions WritePNG produces for a scene at
// the given scale.
func ExportSize(scene *Scene, scale int) (int, int) {
	if scale < 1 {
		scale = 1
	}
	return int(scene.Width) * scale, int(scene.Height) * scale
}
