package Render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"tonelock/Spectrum"
)

const (
	dpi      = 72.0
	fontSize = 12.0
	lineGap  = 1.2

	defaultWidth  = 800
	defaultHeight = 400
	defaultMargin = 40
)

var (
	barColor    = color.RGBA{R: 0x40, G: 0x70, B: 0xc0, A: 0xff}
	peakColor   = color.RGBA{R: 0xe0, G: 0x80, B: 0x20, A: 0xff}
	targetColor = color.RGBA{R: 0x20, G: 0xa0, B: 0x40, A: 0xff}
	bandColor   = color.RGBA{R: 0xd8, G: 0xf0, B: 0xd8, A: 0xff}
	unlockColor = color.RGBA{R: 0x20, G: 0xa0, B: 0x40, A: 0xff}
	lockColor   = color.RGBA{R: 0xc0, G: 0x20, B: 0x20, A: 0xff}
	axisColor   = color.Black
)

// ChartConfig 柱状图尺寸与边距 (像素)，零值使用默认值
type ChartConfig struct {
	Width  int
	Height int
	Margin int
}

// BarChart 把压缩频谱画成柱状图: 峰值柱高亮，目标容差范围画成竖带，底部标注门锁状态
type BarChart struct {
	cfg  ChartConfig
	font *truetype.Font
}

// NewBarChart 解析内置字体并创建绘图器
func NewBarChart(cfg ChartConfig) (*BarChart, error) {
	if cfg.Width <= 0 {
		cfg.Width = defaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = defaultHeight
	}
	if cfg.Margin <= 0 {
		cfg.Margin = defaultMargin
	}

	f, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	return &BarChart{cfg: cfg, font: f}, nil
}

// Draw 绘制一帧结果
func (c *BarChart) Draw(res *Spectrum.Result, targets []Spectrum.Target) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, c.cfg.Width, c.cfg.Height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	m := c.cfg.Margin
	if c.cfg.Width <= 2*m || c.cfg.Height <= 3*m {
		return nil, fmt.Errorf("chart %dx%d too small for margin %d", c.cfg.Width, c.cfg.Height, m)
	}
	plot := image.Rect(m, m, c.cfg.Width-m, c.cfg.Height-2*m)

	bins := res.Reduced
	if len(bins) == 0 {
		return img, c.annotate(img, res, 0, 0)
	}
	fLow, fHigh := bins[0].Frequency, bins[len(bins)-1].Frequency
	span := fHigh - fLow
	if span <= 0 {
		span = 1
	}
	xOf := func(freq float64) int {
		return plot.Min.X + int(math.Round((freq-fLow)/span*float64(plot.Dx()-1)))
	}

	// 目标容差带
	for _, t := range targets {
		x0, x1 := xOf(t.Frequency-t.Tolerance), xOf(t.Frequency+t.Tolerance)
		fillRect(img, image.Rect(x0, plot.Min.Y, x1+1, plot.Max.Y).Intersect(plot), bandColor)
		fillRect(img, image.Rect(xOf(t.Frequency), plot.Min.Y, xOf(t.Frequency)+1, plot.Max.Y).Intersect(plot), targetColor)
	}

	isPeak := make(map[int]bool, len(res.Peaks))
	for _, p := range res.Peaks {
		isPeak[p.Position] = true
	}

	top := res.MaxMagnitude()
	barWidth := plot.Dx() / len(bins)
	if barWidth < 1 {
		barWidth = 1
	}
	for i, b := range bins {
		if top <= 0 {
			break
		}
		h := int(math.Round(b.Magnitude / top * float64(plot.Dy())))
		x := xOf(b.Frequency) - barWidth/2
		col := barColor
		if isPeak[i] {
			col = peakColor
		}
		fillRect(img, image.Rect(x, plot.Max.Y-h, x+max(barWidth-1, 1), plot.Max.Y).Intersect(plot), col)
	}

	// 坐标轴
	fillRect(img, image.Rect(plot.Min.X, plot.Max.Y, plot.Max.X, plot.Max.Y+1), axisColor)
	fillRect(img, image.Rect(plot.Min.X-1, plot.Min.Y, plot.Min.X, plot.Max.Y+1), axisColor)

	return img, c.annotate(img, res, fLow, fHigh)
}

func (c *BarChart) annotate(img *image.RGBA, res *Spectrum.Result, fLow, fHigh float64) error {
	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(c.font)
	ctx.SetFontSize(fontSize)
	ctx.SetHinting(font.HintingFull)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.NewUniform(axisColor))

	m := c.cfg.Margin
	baseY := c.cfg.Height - 2*m + int(math.Round(fontSize*lineGap)) + 2

	if _, err := ctx.DrawString(humanHz(fLow), freetype.Pt(m, baseY)); err != nil {
		return fmt.Errorf("drawing x scale: %w", err)
	}
	if _, err := ctx.DrawString(humanHz(fHigh), freetype.Pt(c.cfg.Width-m-70, baseY)); err != nil {
		return fmt.Errorf("drawing x scale: %w", err)
	}

	pt := freetype.Pt(m, m-10)
	for i, p := range res.Peaks {
		label := fmt.Sprintf("%d. %s %.1f%%", i+1, humanHz(p.Frequency), p.Percent)
		if _, err := ctx.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing peaks: %w", err)
		}
		pt.X += ctx.PointToFixed(fontSize * 12)
	}

	status, col := "Door Locked", lockColor
	if res.Decision.Unlocked {
		status, col = "Door Unlocked", unlockColor
	}
	ctx.SetSrc(image.NewUniform(col))
	if _, err := ctx.DrawString(status, freetype.Pt(m, c.cfg.Height-m/2)); err != nil {
		return fmt.Errorf("drawing status: %w", err)
	}
	return nil
}

func fillRect(img *image.RGBA, r image.Rectangle, col color.Color) {
	if r.Empty() {
		return
	}
	draw.Draw(img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

func humanHz(hz float64) string {
	fract, suffix := humanize.ComputeSI(hz)
	return fmt.Sprintf("%0.2f %sHz", fract, suffix)
}

// SavePNG 把图片写入文件
func SavePNG(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding png: %w", err)
	}
	return f.Close()
}
