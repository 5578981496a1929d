package main

import "math"

var (
	background = [3]float64{18, 20, 28}
	centerLine = [3]byte{35, 40, 50}
	playedFill = [3]float64{70, 200, 230}
	futureFill = [3]float64{50, 80, 120}
)

// sectionGain gives each quarter of the track its own loudness.
var sectionGain = [4]float64{0.5, 0.8, 1.0, 0.6}

// renderWaveform draws a scrolling track waveform into dst (RGB, width*height*3)
// and returns it. dst is reused when large enough.
func renderWaveform(dst []byte, width, height int, t float64) []byte {
	n := width * height * 3
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]

	mid := height / 2
	for y := range height {
		shade := math.Abs(float64(y)/float64(height)-0.5) * 0.3
		for x := range width {
			i := (y*width + x) * 3
			dst[i] = byte(background[0] + shade*10)
			dst[i+1] = byte(background[1] + shade*10)
			dst[i+2] = byte(background[2] + shade*15)
		}
	}
	for x := range width {
		i := (mid*width + x) * 3
		copy(dst[i:i+3], centerLine[:])
	}

	_, frac := math.Modf(t * 0.1)
	playhead := int(frac * float64(width))

	for x := range width {
		pos := float64(x) / float64(width)
		amp := amplitude(pos, t)
		reach := int(amp * float64(mid) * 0.9)
		fill := futureFill
		if x < playhead {
			fill = playedFill
		}
		for dy := -reach; dy <= reach; dy++ {
			y := min(max(mid+dy, 0), height-1)
			i := (y*width + x) * 3
			k := 1 - float64(abs(dy))/float64(max(reach, 1))*0.3
			dst[i] = byte(fill[0] * k)
			dst[i+1] = byte(fill[1] * k)
			dst[i+2] = byte(fill[2] * k)
		}
	}

	if playhead < width {
		for y := range height {
			i := (y*width + playhead) * 3
			dst[i], dst[i+1], dst[i+2] = 255, 255, 255
		}
	}
	return dst
}

// amplitude models a song: per-section gain, beat transients and a few
// moving partials. The result is clamped to [0, 1].
func amplitude(pos, t float64) float64 {
	section, within := math.Modf(pos * 4)
	gain := sectionGain[int(section)%len(sectionGain)]
	switch {
	case within < 0.1:
		gain *= within / 0.1
	case within > 0.9:
		gain *= 1 - (within-0.9)/0.1
	}

	_, beat := math.Modf(pos * 32)
	if beat < 0.05 {
		gain *= 1 + (1-beat/0.05)*0.4
	}

	partials := math.Abs(math.Sin(pos*20+t*2)*0.25) +
		math.Abs(math.Sin(pos*80+t*5)*0.3) +
		math.Abs(math.Sin(pos*120+t*3)*0.2) +
		math.Abs(math.Sin(pos*500+t*50)*0.15)
	return math.Min(partials*gain, 1)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
