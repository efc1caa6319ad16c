package codec

import (
	"strings"
	"testing"
)

// -----------------------------------------------------------------------------
// Benchmarks for the per-frame hot path: conversion and ANSI encoding at a
// typical full-screen geometry.
// -----------------------------------------------------------------------------

func benchmarkConvert(b *testing.B, conv *Converter, mode Mode) {
	frame := gradientFrame(640, 480)
	geo := Geometry{Cols: 200, Rows: 60}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := conv.Convert(frame, geo, mode); err != nil {
			b.Fatalf("convert failed: %v", err)
		}
	}
}

func BenchmarkConvertTrueColor(b *testing.B) { benchmarkConvert(b, DefaultConverter, TrueColorBlocks) }
func BenchmarkConvertPalette(b *testing.B)   { benchmarkConvert(b, DefaultConverter, PaletteColorBlocks) }
func BenchmarkConvertMosaic(b *testing.B)    { benchmarkConvert(b, DefaultConverter, Mosaic) }

func BenchmarkConvertSmooth(b *testing.B) {
	benchmarkConvert(b, NewConverter(ConverterOptions{Smooth: true}), ColorAscii)
}

func BenchmarkAppendANSI(b *testing.B) {
	grid, err := Convert(gradientFrame(640, 480), Geometry{Cols: 200, Rows: 60}, TrueColorBlocks)
	if err != nil {
		b.Fatal(err)
	}
	var sb strings.Builder
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sb.Reset()
		grid.AppendANSI(&sb)
	}
}
