// Package paginator 分页，页码从 1 开始
//
// 页码缺失或非数字取第 1 页，超出 [1, NumPages] 取最后一页；空结果也有 1 页
package paginator

import (
	"strconv"
	"strings"
)

// DefaultPageSize size <= 0 时使用
const DefaultPageSize = 10

// Page 当前页
type Page struct {
	Number   int
	Size     int
	Total    int64
	NumPages int
}

// New 根据原始页码参数解析当前页
func New(raw string, total int64, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}
	numPages := int((total + int64(size) - 1) / int64(size))
	if numPages < 1 {
		numPages = 1
	}

	number, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case err != nil:
		number = 1
	case number < 1 || number > numPages:
		number = numPages
	}
	return Page{Number: number, Size: size, Total: total, NumPages: numPages}
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

func (p Page) Limit() int { return p.Size }

// Len 本页条目数
func (p Page) Len() int {
	remaining := p.Total - int64(p.Offset())
	if remaining <= 0 {
		return 0
	}
	if remaining > int64(p.Size) {
		return p.Size
	}
	return int(remaining)
}

func (p Page) HasPrevious() bool { return p.Number > 1 }
func (p Page) HasNext() bool     { return p.Number < p.NumPages }
func (p Page) HasOtherPages() bool {
	return p.HasPrevious() || p.HasNext()
}
func (p Page) PreviousNumber() int { return p.Number - 1 }
func (p Page) NextNumber() int     { return p.Number + 1 }

// Numbers 全部页码
func (p Page) Numbers() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
