// Package mtc 解析供应商质保书（Mill Test Certificate）导出的炉前化学成分表。
// 支持逗号或制表符分隔，国内钢厂导出的文件通常是 GBK 编码。
package mtc

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bitfantasy/rmqc/internal/rm/engine"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// 文件编码
const (
	EncodingUTF8 = "utf-8"
	EncodingGBK  = "gbk"
)

var (
	ErrNoHeatColumn = errors.New("certificate has no heat number column")
	ErrNoElements   = errors.New("certificate has no chemical element columns")
	ErrEncoding     = errors.New("unsupported certificate encoding")
)

// Row 一炉的炉前成分
type Row struct {
	HeatNo string
	Values map[engine.AttributeID]string
}

// Result 解析结果，Failed 为缺少炉号的行数
type Result struct {
	Rows   []Row
	Failed int
}

var heatHeaders = map[string]bool{
	"heat": true, "heat no": true, "heat_no": true, "heatno": true, "heat number": true,
	"炉号": true, "炉批号": true,
}

var elementHeaders = map[string]engine.AttributeID{
	"c": engine.AttrCarbon, "碳": engine.AttrCarbon,
	"si": engine.AttrSilicon, "硅": engine.AttrSilicon,
	"mn": engine.AttrManganese, "锰": engine.AttrManganese,
	"p": engine.AttrPhosphorus, "磷": engine.AttrPhosphorus,
	"s": engine.AttrSulphur, "硫": engine.AttrSulphur,
}

// Parse 读取整份质保书；表头决定列含义，未识别的列忽略
func Parse(r io.Reader, encoding string) (*Result, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingUTF8, "utf8":
	case EncodingGBK:
		// GBK → UTF-8
		r = transform.NewReader(r, simplifiedchinese.GBK.NewDecoder())
	default:
		return nil, fmt.Errorf("%w: %q", ErrEncoding, encoding)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if firstLine, _, _ := bytes.Cut(data, []byte("\n")); bytes.Count(firstLine, []byte("\t")) > bytes.Count(firstLine, []byte(",")) {
		reader.Comma = '\t'
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoHeatColumn
	}

	heatCol := -1
	cols := make(map[int]engine.AttributeID)
	for i, h := range records[0] {
		key := normalizeHeader(h)
		if heatHeaders[key] {
			heatCol = i
			continue
		}
		if attr, ok := elementHeaders[key]; ok {
			cols[i] = attr
		}
	}
	if heatCol < 0 {
		return nil, ErrNoHeatColumn
	}
	if len(cols) == 0 {
		return nil, ErrNoElements
	}

	res := &Result{}
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		if heatCol >= len(rec) || strings.TrimSpace(rec[heatCol]) == "" {
			res.Failed++
			continue
		}
		row := Row{HeatNo: strings.TrimSpace(rec[heatCol]), Values: make(map[engine.AttributeID]string, len(cols))}
		for i, attr := range cols {
			if i < len(rec) {
				if v := strings.TrimSpace(rec[i]); v != "" {
					row.Values[attr] = v
				}
			}
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

// normalizeHeader "%C"、"C (%)"、" Si " 等写法统一为小写元素符号
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimPrefix(h, "%")
	if i := strings.IndexAny(h, "(（"); i > 0 {
		h = strings.TrimSpace(h[:i])
	}
	return h
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
