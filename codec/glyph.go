package codec

import "math/bits"

const (
	mosaicW = 4
	mosaicH = 8
)

// bitmapEntry pairs a 4x8 coverage pattern (MSB = top-left) with a glyph.
type bitmapEntry struct {
	pattern   uint32
	codePoint rune
}

var bitmaps = []bitmapEntry{
	{0x00000000, 0x00a0},

	// Block graphics
	{0x0000000f, 0x2581},
	{0x000000ff, 0x2582},
	{0x00000fff, 0x2583},
	{0x0000ffff, 0x2584},
	{0x000fffff, 0x2585},
	{0x00ffffff, 0x2586},
	{0x0fffffff, 0x2587},

	{0xeeeeeeee, 0x258a},
	{0xcccccccc, 0x258c},
	{0x88888888, 0x258e},

	{0x0000cccc, 0x2596},
	{0x00003333, 0x2597},
	{0xcccc0000, 0x2598},
	{0xcccc3333, 0x259a},
	{0x33330000, 0x259d},

	// Heavy lines
	{0x000ff000, 0x2501},
	{0x66666666, 0x2503},

	{0x00077666, 0x250f},
	{0x000ee666, 0x2513},
	{0x66677000, 0x2517},
	{0x666ee000, 0x251b},

	{0x66677666, 0x2523},
	{0x666ee666, 0x252b},
	{0x000ff666, 0x2533},
	{0x666ff000, 0x253b},
	{0x666ff666, 0x254b},

	{0x000cc000, 0x2578},
	{0x00066000, 0x2579},
	{0x00033000, 0x257a},

	{0x06600660, 0x254f},

	// Light lines
	{0x000f0000, 0x2500},
	{0x0000f000, 0x2500},
	{0x44444444, 0x2502},
	{0x22222222, 0x2502},

	{0x000e0000, 0x2574},
	{0x0000e000, 0x2574},
	{0x44440000, 0x2575},
	{0x22220000, 0x2575},
	{0x00030000, 0x2576},
	{0x00003000, 0x2576},
	{0x00004444, 0x2577},
	{0x00002222, 0x2577},

	// Misc technical
	{0x0f000000, 0x23ba},
	{0x00f00000, 0x23bb},
	{0x00000f00, 0x23bc},
	{0x000000f0, 0x23bd},

	// Shapes
	{0x00066000, 0x25aa},
}

// mosaicCell picks the glyph whose coverage best matches a 4x8 block of
// packed 0xRRGGBB samples and returns it with its foreground and background.
func mosaicCell(block *[mosaicW * mosaicH]uint32) Cell {
	minC := [3]int{255, 255, 255}
	maxC := [3]int{0, 0, 0}

	type colorCount struct {
		color uint32
		count int
	}

	var colors [mosaicW * mosaicH]colorCount
	nColors := 0

	for _, rgb := range block {
		for i := 0; i < 3; i++ {
			d := channel(rgb, i)
			if d < minC[i] {
				minC[i] = d
			}
			if d > maxC[i] {
				maxC[i] = d
			}
		}
		found := false
		for i := 0; i < nColors; i++ {
			if colors[i].color == rgb {
				colors[i].count++
				found = true
				break
			}
		}
		if !found {
			colors[nColors] = colorCount{color: rgb, count: 1}
			nColors++
		}
	}

	var maxColor1, maxColor2 uint32
	count2 := 0
	best1, best2 := -1, -1
	idx1, idx2 := -1, -1
	for i := 0; i < nColors; i++ {
		c := colors[i].count
		if c > best1 {
			best2, idx2 = best1, idx1
			best1, idx1 = c, i
		} else if c > best2 {
			best2, idx2 = c, i
		}
	}
	if idx1 >= 0 {
		maxColor1 = colors[idx1].color
		maxColor2 = maxColor1
		count2 = colors[idx1].count
	}
	if idx2 >= 0 {
		maxColor2 = colors[idx2].color
		count2 += colors[idx2].count
	}

	var bitsVal uint32
	direct := count2 > len(block)/2

	if direct {
		// two dominant colors: assign each sample to the closer one
		for _, rgb := range block {
			bitsVal <<= 1
			d1, d2 := 0, 0
			for i := 0; i < 3; i++ {
				c := channel(rgb, i)
				c1 := channel(maxColor1, i)
				c2 := channel(maxColor2, i)
				d1 += (c1 - c) * (c1 - c)
				d2 += (c2 - c) * (c2 - c)
			}
			if d1 > d2 {
				bitsVal |= 1
			}
		}
	} else {
		// split on the channel with the widest range
		splitIndex := 0
		bestSplit := 0
		for i := 0; i < 3; i++ {
			if maxC[i]-minC[i] > bestSplit {
				bestSplit = maxC[i] - minC[i]
				splitIndex = i
			}
		}
		splitValue := minC[splitIndex] + bestSplit/2
		for _, rgb := range block {
			bitsVal <<= 1
			if channel(rgb, splitIndex) > splitValue {
				bitsVal |= 1
			}
		}
	}

	bestDiff := len(block)
	bestPattern := uint32(0x0000ffff)
	codePoint := rune(0x2584)
	inverted := false

	for _, bm := range bitmaps {
		pattern := bm.pattern
		for i := 0; i < 2; i++ {
			diff := bits.OnesCount32(pattern ^ bitsVal)
			if diff < bestDiff {
				bestDiff = diff
				bestPattern = bm.pattern
				codePoint = bm.codePoint
				inverted = bm.pattern != pattern
			}
			pattern = ^pattern
		}
	}

	if direct {
		if inverted {
			maxColor1, maxColor2 = maxColor2, maxColor1
		}
		return Cell{
			Rune: codePoint,
			Fg:   packedColor(maxColor2),
			Bg:   packedColor(maxColor1),
		}
	}
	return averagedCell(block, codePoint, bestPattern)
}

// averagedCell averages the samples covered and uncovered by pattern into
// the foreground and background colors.
func averagedCell(block *[mosaicW * mosaicH]uint32, codePoint rune, pattern uint32) Cell {
	var fg, bg [3]int
	fgCount, bgCount := 0, 0
	mask := uint32(0x80000000)
	for _, rgb := range block {
		avg := &bg
		if pattern&mask != 0 {
			avg = &fg
			fgCount++
		} else {
			bgCount++
		}
		for i := 0; i < 3; i++ {
			avg[i] += channel(rgb, i)
		}
		mask >>= 1
	}
	if fgCount > 0 {
		for i := range fg {
			fg[i] /= fgCount
		}
	}
	if bgCount > 0 {
		for i := range bg {
			bg[i] /= bgCount
		}
	}
	return Cell{
		Rune: codePoint,
		Fg:   RGB(uint8(fg[0]), uint8(fg[1]), uint8(fg[2])),
		Bg:   RGB(uint8(bg[0]), uint8(bg[1]), uint8(bg[2])),
	}
}

func channel(rgb uint32, index int) int {
	return int(rgb>>(16-8*uint(index))) & 0xff
}

func packRGB(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

func packedColor(rgb uint32) Color {
	return RGB(uint8(rgb>>16), uint8(rgb>>8), uint8(rgb))
}
