package render

import (
	"math"

	"github.com/fogleman/gg"

	"banner-creator/internal/banner"
)

// Glyphs are stroked outlines on a 24x24 grid.
const (
	glyphUnits  = 24.0
	glyphStroke = 2.0
)

var glyphs = map[banner.TagIcon]func(dc *gg.Context){
	banner.IconCheckCircle: func(dc *gg.Context) {
		dc.MoveTo(22, 11.08)
		dc.LineTo(22, 12)
		// open circle from 3 o'clock round to the tick's exit point
		dc.DrawArc(12, 12, 10, 0, 2*math.Pi-math.Atan2(9.14, 4.07))
		dc.NewSubPath()
		polyline(dc, 22, 4, 12, 14.01, 9, 11.01)
	},
	banner.IconArrowRightCircle: func(dc *gg.Context) {
		dc.NewSubPath()
		dc.DrawCircle(12, 12, 10)
		dc.NewSubPath()
		polyline(dc, 12, 16, 16, 12, 12, 8)
		dc.NewSubPath()
		polyline(dc, 8, 12, 16, 12)
	},
	banner.IconStar: func(dc *gg.Context) {
		polygon(dc, 12, 2, 15.09, 8.26, 22, 9.27, 17, 14.14, 18.18, 21.02,
			12, 17.77, 5.82, 21.02, 7, 14.14, 2, 9.27, 8.91, 8.26)
	},
	banner.IconZap: func(dc *gg.Context) {
		polygon(dc, 13, 2, 3, 14, 12, 14, 11, 22, 21, 10, 12, 10)
	},
	banner.IconAward: func(dc *gg.Context) {
		dc.NewSubPath()
		dc.DrawCircle(12, 8, 7)
		dc.NewSubPath()
		polyline(dc, 8.21, 13.89, 7, 23, 12, 20, 17, 23, 15.79, 13.88)
	},
}

func polyline(dc *gg.Context, pts ...float64) {
	dc.MoveTo(pts[0], pts[1])
	for i := 2; i+1 < len(pts); i += 2 {
		dc.LineTo(pts[i], pts[i+1])
	}
}

func polygon(dc *gg.Context, pts ...float64) {
	dc.NewSubPath()
	polyline(dc, pts...)
	dc.ClosePath()
}
