package adapter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"RosterSync/internal/interfaces"
)

// ReadCSV 解析带表头的 CSV，表头即源列名（大小写不敏感，统一转小写）
func ReadCSV(r io.Reader, p *Profile) ([]interfaces.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []interfaces.Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取CSV表头失败: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
	}

	var rows []interfaces.Row
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取CSV第%d行失败: %w", line, err)
		}
		fields := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) && col != "" {
				fields[col] = record[i]
			}
		}
		rows = append(rows, p.Wrap(fields))
	}
	return rows, nil
}

// ReadJSON 解析 JSON 对象数组，标量值统一转字符串，嵌套值忽略
func ReadJSON(r io.Reader, p *Profile) ([]interfaces.Row, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw []map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("解析JSON失败: %w", err)
	}
	rows := make([]interfaces.Row, 0, len(raw))
	for _, obj := range raw {
		fields := make(map[string]string, len(obj))
		for k, v := range obj {
			switch val := v.(type) {
			case string:
				fields[strings.ToLower(k)] = val
			case json.Number:
				fields[strings.ToLower(k)] = val.String()
			case bool:
				fields[strings.ToLower(k)] = fmt.Sprintf("%t", val)
			}
		}
		rows = append(rows, p.Wrap(fields))
	}
	return rows, nil
}
