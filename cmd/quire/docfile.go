package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/quire/model"
)

// docFile is the YAML document description accepted by the layout command.
// It mirrors the model package closely; the loader's job is naming page
// sizes, defaulting margins, and turning block specs into typed blocks.
type docFile struct {
	Blocks   []blockSpec   `yaml:"blocks"`
	Sections []sectionSpec `yaml:"sections"`
	Headers  []headersSpec `yaml:"headers"`
}

type blockSpec struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"`

	// Paragraphs and list items.
	Text   string    `yaml:"text"`
	Runs   []runSpec `yaml:"runs"`
	Style  styleSpec `yaml:"style"`
	Indents struct {
		Left      float64 `yaml:"left"`
		Right     float64 `yaml:"right"`
		FirstLine float64 `yaml:"firstLine"`
		Hanging   float64 `yaml:"hanging"`
	} `yaml:"indents"`
	KeepWithNext bool `yaml:"keepWithNext"`
	KeepTogether bool `yaml:"keepTogether"`

	// Tables.
	Rows            [][]string `yaml:"rows"`
	RepeatHeaderRow bool       `yaml:"repeatHeaderRow"`

	// Images.
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	AltText string  `yaml:"altText"`

	// Lists.
	Items   []string `yaml:"items"`
	Ordered bool     `yaml:"ordered"`

	// Section breaks.
	Force string `yaml:"force"` // nextPage | continuous
}

type runSpec struct {
	Text  string    `yaml:"text"`
	Token string    `yaml:"token"` // page | numpages
	Style styleSpec `yaml:"style"`
}

type styleSpec struct {
	FontName string  `yaml:"fontName"`
	FontSize float64 `yaml:"fontSize"`
	Bold     bool    `yaml:"bold"`
	Italic   bool    `yaml:"italic"`
}

type sectionSpec struct {
	StartBlock  int         `yaml:"startBlock"`
	Page        pageSpec    `yaml:"page"`
	Orientation string      `yaml:"orientation"` // portrait | landscape
	Columns     int         `yaml:"columns"`
	ColumnGap   float64     `yaml:"columnGap"`
	Margins     *marginSpec `yaml:"margins"`
}

type marginSpec struct {
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
}

type headersSpec struct {
	Header             *hfDefSpec `yaml:"header"`
	Footer             *hfDefSpec `yaml:"footer"`
	DifferentFirstPage bool       `yaml:"differentFirstPage"`
	OddEvenPages       bool       `yaml:"oddEvenPages"`
}

type hfDefSpec struct {
	Default []blockSpec `yaml:"default"`
	First   []blockSpec `yaml:"first"`
	Even    []blockSpec `yaml:"even"`
	Odd     []blockSpec `yaml:"odd"`
}

// pageSpec accepts either a named size ("letter", "a4") or an explicit
// {width, height} mapping.
type pageSpec struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

var namedPageSizes = map[string]model.PageSize{
	"letter":  model.PageLetter,
	"legal":   model.PageLegal,
	"tabloid": model.PageTabloid,
	"a4":      model.PageA4,
	"a5":      model.PageA5,
}

func (p *pageSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		size, ok := namedPageSizes[strings.ToLower(value.Value)]
		if !ok {
			return fmt.Errorf("unknown page size %q", value.Value)
		}
		p.Width, p.Height = size.Width, size.Height
		return nil
	}
	type raw pageSpec
	return value.Decode((*raw)(p))
}

// loadDocument reads a YAML document description and builds the model types
// the library wants.
func loadDocument(path string) ([]model.Block, []model.SectionRange, []model.SectionHeaders, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, err
	}
	var doc docFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}

	blocks, err := buildBlocks(doc.Blocks)
	if err != nil {
		return nil, nil, nil, err
	}

	sections := make([]model.SectionRange, 0, len(doc.Sections))
	for i, s := range doc.Sections {
		sec, err := buildSection(s)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("section %d: %w", i, err)
		}
		sections = append(sections, sec)
	}

	headers := make([]model.SectionHeaders, 0, len(doc.Headers))
	for i, h := range doc.Headers {
		sh, err := buildHeaders(h, i)
		if err != nil {
			return nil, nil, nil, err
		}
		headers = append(headers, sh)
	}
	if len(headers) == 0 {
		headers = nil
	}
	return blocks, sections, headers, nil
}

func buildBlocks(specs []blockSpec) ([]model.Block, error) {
	blocks := make([]model.Block, 0, len(specs))
	for i, bs := range specs {
		b, err := buildBlock(bs)
		if err != nil {
			return nil, fmt.Errorf("block %d (%s): %w", i, bs.ID, err)
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func buildBlock(bs blockSpec) (model.Block, error) {
	id := model.BlockID(bs.ID)
	switch strings.ToLower(bs.Type) {
	case "paragraph", "":
		runs, err := buildRuns(bs.Text, bs.Runs, bs.Style)
		if err != nil {
			return nil, err
		}
		return &model.Paragraph{
			BlockID: id,
			Runs:    runs,
			Indents: model.Indents{
				Left:      bs.Indents.Left,
				Right:     bs.Indents.Right,
				FirstLine: bs.Indents.FirstLine,
				Hanging:   bs.Indents.Hanging,
			},
			KeepWithNext: bs.KeepWithNext,
			KeepTogether: bs.KeepTogether,
		}, nil
	case "table":
		rows := make([]model.TableRow, 0, len(bs.Rows))
		for _, r := range bs.Rows {
			cells := make([]model.TableCell, 0, len(r))
			for _, text := range r {
				cells = append(cells, model.TableCell{
					Runs: []model.TextRun{{Text: text, Style: buildStyle(bs.Style)}},
				})
			}
			rows = append(rows, model.TableRow{Cells: cells})
		}
		return &model.Table{BlockID: id, Rows: rows, RepeatHeaderRow: bs.RepeatHeaderRow}, nil
	case "image":
		if bs.Width <= 0 || bs.Height <= 0 {
			return nil, fmt.Errorf("image needs a positive width and height")
		}
		return &model.Image{BlockID: id, Width: bs.Width, Height: bs.Height, AltText: bs.AltText}, nil
	case "list":
		items := make([]model.ListItem, 0, len(bs.Items))
		for _, text := range bs.Items {
			items = append(items, model.ListItem{
				Runs: []model.TextRun{{Text: text, Style: buildStyle(bs.Style)}},
			})
		}
		return &model.List{BlockID: id, Items: items, Ordered: bs.Ordered}, nil
	case "break", "sectionbreak":
		t := model.BreakNextPage
		if strings.EqualFold(bs.Force, "continuous") {
			t = model.BreakContinuous
		}
		return &model.SectionBreak{BlockID: id, Type: t}, nil
	default:
		return nil, fmt.Errorf("unknown block type %q", bs.Type)
	}
}

func buildRuns(text string, specs []runSpec, blockStyle styleSpec) ([]model.TextRun, error) {
	if len(specs) == 0 {
		return []model.TextRun{{Text: text, Style: buildStyle(blockStyle)}}, nil
	}
	runs := make([]model.TextRun, 0, len(specs))
	for _, rs := range specs {
		style := rs.Style
		if style == (styleSpec{}) {
			style = blockStyle
		}
		run := model.TextRun{Text: rs.Text, Style: buildStyle(style)}
		switch strings.ToLower(rs.Token) {
		case "":
		case "page":
			run.Token = model.TokenPage
		case "numpages":
			run.Token = model.TokenNumPages
		default:
			return nil, fmt.Errorf("unknown token %q", rs.Token)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func buildStyle(s styleSpec) model.TextStyle {
	return model.TextStyle{
		FontName: s.FontName,
		FontSize: s.FontSize,
		Bold:     s.Bold,
		Italic:   s.Italic,
	}
}

func buildSection(s sectionSpec) (model.SectionRange, error) {
	if s.Page.Width <= 0 || s.Page.Height <= 0 {
		return model.SectionRange{}, fmt.Errorf("page size is required")
	}
	sec := model.SectionRange{
		StartBlock: s.StartBlock,
		Page:       model.PageSize{Width: s.Page.Width, Height: s.Page.Height},
		Columns:    s.Columns,
		ColumnGap:  s.ColumnGap,
		Margins:    model.DefaultMargins(),
	}
	switch strings.ToLower(s.Orientation) {
	case "", "portrait":
		sec.Orientation = model.Portrait
	case "landscape":
		sec.Orientation = model.Landscape
	default:
		return model.SectionRange{}, fmt.Errorf("unknown orientation %q", s.Orientation)
	}
	if s.Margins != nil {
		sec.Margins = model.Margins{
			Top:    s.Margins.Top,
			Bottom: s.Margins.Bottom,
			Left:   s.Margins.Left,
			Right:  s.Margins.Right,
		}
	}
	return sec, nil
}

func buildHeaders(h headersSpec, index int) (model.SectionHeaders, error) {
	sh := model.SectionHeaders{
		DifferentFirstPage: h.DifferentFirstPage,
		OddEvenPages:       h.OddEvenPages,
	}
	var err error
	if sh.Header, err = buildHFDef(h.Header); err != nil {
		return sh, fmt.Errorf("headers %d: %w", index, err)
	}
	if sh.Footer, err = buildHFDef(h.Footer); err != nil {
		return sh, fmt.Errorf("footers %d: %w", index, err)
	}
	return sh, nil
}

func buildHFDef(spec *hfDefSpec) (*model.HeaderFooterDef, error) {
	if spec == nil {
		return nil, nil
	}
	def := &model.HeaderFooterDef{}
	var err error
	if def.Default, err = buildBlocks(spec.Default); err != nil {
		return nil, err
	}
	if def.First, err = buildBlocks(spec.First); err != nil {
		return nil, err
	}
	if def.Even, err = buildBlocks(spec.Even); err != nil {
		return nil, err
	}
	if def.Odd, err = buildBlocks(spec.Odd); err != nil {
		return nil, err
	}
	return def, nil
}
