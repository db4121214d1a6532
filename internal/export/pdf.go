/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/vector"
	"canvasstudio/internal/version"
)

const (
	pdfFontSize = 11.0
	pdfLineH    = pdfFontSize * 1.25
)

// WritePDF renders the scene as a single-page PDF sized to the content.
// Text stays vector; images are embedded as PNG.
func WritePDF(w io.Writer, s Scene) error {
	pw, ph := s.Size()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pw, Ht: ph},
	})
	pdf.SetTitle(s.Opts.Title, true)
	pdf.SetCreator("Canvas Studio "+version.String(), true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: pw, Ht: ph})
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	setFillColor(pdf, s.Opts.Background)
	pdf.Rect(0, 0, pw, ph, "F")

	for i, n := range s.Nodes {
		at := s.ToOut(n.Position)
		nw, nh := n.Size.W*s.Opts.Scale, n.Size.H*s.Opts.Scale
		pdf.TransformBegin()
		if n.Rotation != 0 {
			// gofpdf rotates counter-clockwise; node rotation is clockwise on screen.
			pdf.TransformRotate(-n.Rotation, at.X, at.Y)
		}
		drawPDFNode(pdf, tr, n, fmt.Sprintf("node-%d", i), at, nw, nh, s.Opts.Scale)
		pdf.TransformEnd()
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func drawPDFNode(pdf *gofpdf.Fpdf, tr func(string) string, n domain.Node, name string, at vector.Pt, w, h, scale float64) {
	st := styleOf(n)
	switch d := n.Data.(type) {
	case domain.ImageData:
		if embedImage(pdf, name, d.Raw, at, w, h) {
			return
		}
	case domain.DrawData:
		setDrawColor(pdf, st.ink)
		pdf.SetLineWidth(max(0.5, d.StrokeWidth*scale))
		pdf.SetLineCapStyle("round")
		for i := 1; i < len(d.Points); i++ {
			a := at.Add(d.Points[i-1].Mul(scale))
			b := at.Add(d.Points[i].Mul(scale))
			pdf.Line(a.X, a.Y, b.X, b.Y)
		}
		return
	}
	setFillColor(pdf, st.fill)
	setDrawColor(pdf, st.stroke)
	pdf.SetLineWidth(0.75)
	pdf.Rect(at.X, at.Y, w, h, "FD")

	pdf.SetFont("Helvetica", "", pdfFontSize)
	setTextColor(pdf, st.ink)
	pad := float64(textPadding)
	if w <= 2*pad {
		return
	}
	y := at.Y + pad
	for _, line := range pdf.SplitText(tr(caption(n)), w-2*pad) {
		if y+pdfLineH > at.Y+h-pad/2 {
			break
		}
		pdf.SetXY(at.X+pad, y)
		pdf.CellFormat(w-2*pad, pdfLineH, line, "", 0, "L", false, 0, "")
		y += pdfLineH
	}
}

// embedImage re-encodes the payload as PNG so any decodable format embeds.
func embedImage(pdf *gofpdf.Fpdf, name string, raw []byte, at vector.Pt, w, h float64) bool {
	img, ok := decodeImage(raw)
	if !ok {
		return false
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return false
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, &buf)
	if !pdf.Ok() {
		return false
	}
	pdf.ImageOptions(name, at.X, at.Y, w, h, false, opts, 0, "")
	return true
}

func setDrawColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

func setTextColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}
