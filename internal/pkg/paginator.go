package pkg

import (
	"strconv"
	"strings"
)

const DefaultPageSize = 10

// Page 页码分页结果，页码从 1 开始
type Page struct {
	Number   int
	PerPage  int
	NumPages int
	Total    int64
}

// NewPage 解析请求里的页码：缺省或非数字取第 1 页，越界（含小于 1）取最后一页。
// 空集合也有一页。
func NewPage(raw string, total int64, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}
	numPages := int((total + int64(perPage) - 1) / int64(perPage))
	if numPages == 0 {
		numPages = 1
	}

	number := 1
	if raw = strings.TrimSpace(raw); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			number = n
		}
	}
	if number < 1 || number > numPages {
		number = numPages
	}
	return Page{Number: number, PerPage: perPage, NumPages: numPages, Total: total}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

func (p Page) Limit() int {
	return p.PerPage
}

func (p Page) HasNext() bool {
	return p.Number < p.NumPages
}

func (p Page) HasPrevious() bool {
	return p.Number > 1
}

func (p Page) HasOtherPages() bool {
	return p.HasNext() || p.HasPrevious()
}

func (p Page) NextNumber() int {
	if !p.HasNext() {
		return p.Number
	}
	return p.Number + 1
}

func (p Page) PreviousNumber() int {
	if !p.HasPrevious() {
		return p.Number
	}
	return p.Number - 1
}

// Range 1..NumPages，模板渲染页码链接用
func (p Page) Range() []int {
	r := make([]int, p.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}

// Slice 从已排序的完整集合中截取当前页
func Slice[T any](items []T, p Page) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
