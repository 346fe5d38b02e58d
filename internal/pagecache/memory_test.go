package pagecache

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
)

func makePages(n, blocksPerPage int) []Page {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{
			PageNum:       i + 1,
			Title:         "Chapter",
			HTML:          fmt.Sprintf("<p>page %d</p>", i+1),
			BlocksPerPage: blocksPerPage,
		}
	}
	return pages
}

func TestBounds(t *testing.T) {
	tests := []struct {
		index, size int
		first, last int
		wantErr     bool
	}{
		{0, 1, 1, 1, false},
		{4, 1, 5, 5, false},
		{0, 10, 1, 10, false},
		{2, 10, 21, 30, false},
		{-1, 1, 0, 0, true},
		{0, 0, 0, 0, true},
		{0, MaxWindowSize, 1, MaxWindowSize, false},
		{0, MaxWindowSize + 1, 0, 0, true},
		{0, math.MaxInt, 0, 0, true},
		{1 << 62, 4, 0, 0, true},
		{math.MaxInt, 1, 0, 0, true},
		{math.MaxInt - 1, 1, math.MaxInt, math.MaxInt, false},
	}
	for _, tt := range tests {
		first, last, err := Bounds(tt.index, tt.size)
		if (err != nil) != tt.wantErr {
			t.Errorf("Bounds(%d, %d) error = %v", tt.index, tt.size, err)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("Bounds error = %v, want ErrInvalidWindow", err)
		}
		if first != tt.first || last != tt.last {
			t.Errorf("Bounds(%d, %d) = %d..%d, want %d..%d", tt.index, tt.size, first, last, tt.first, tt.last)
		}
	}
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if ok, _ := s.Exists(ctx, "b1", 25); ok {
		t.Fatal("empty store reports pages")
	}
	if err := s.WriteAll(ctx, "b1", makePages(12, 25)); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if ok, _ := s.Exists(ctx, "b1", 25); !ok {
		t.Error("Exists() = false after write")
	}
	if ok, _ := s.Exists(ctx, "b1", 15); ok {
		t.Error("Exists() true for a different threshold")
	}
	if n, _ := s.Count(ctx, "b1"); n != 12 {
		t.Errorf("Count() = %d, want 12", n)
	}
	if ok, _ := s.Exists(ctx, "b2", 25); ok {
		t.Error("pages leaked to another book")
	}

	if err := s.DeleteAll(ctx, "b1"); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	if n, _ := s.Count(ctx, "b1"); n != 0 {
		t.Errorf("Count() after delete = %d", n)
	}
}

func TestMemoryStore_Window(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.WriteAll(ctx, "b1", makePages(12, 25)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		index, size int
		wantNums    []int
	}{
		{"first page", 0, 1, []int{1}},
		{"fifth page", 4, 1, []int{5}},
		{"second window of five", 1, 5, []int{6, 7, 8, 9, 10}},
		{"partial last window", 2, 5, []int{11, 12}},
		{"past the end", 12, 1, nil},
		{"far past the end", 100, 10, nil},
		{"largest representable window", math.MaxInt / MaxWindowSize - 1, MaxWindowSize, nil},
		{"full window at the cap", 0, MaxWindowSize, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := s.Window(ctx, "b1", tt.index, tt.size)
			if err != nil {
				t.Fatalf("Window() error = %v", err)
			}
			if w.Total != 12 {
				t.Errorf("Total = %d, want 12", w.Total)
			}
			if w.Pages == nil {
				t.Error("Pages is nil, want empty slice")
			}
			if len(w.Pages) != len(tt.wantNums) {
				t.Fatalf("got %d pages, want %d", len(w.Pages), len(tt.wantNums))
			}
			for i, n := range tt.wantNums {
				if w.Pages[i].PageNum != n || w.Pages[i].BookID != "b1" {
					t.Errorf("Pages[%d] = %+v, want page %d", i, w.Pages[i], n)
				}
			}
		})
	}

	invalid := []struct {
		name        string
		index, size int
	}{
		{"negative index", -1, 1},
		{"size over the cap", 0, math.MaxInt},
		{"page numbers overflow", 1 << 62, 4},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			w, err := s.Window(ctx, "b1", tt.index, tt.size)
			if !errors.Is(err, ErrInvalidWindow) {
				t.Errorf("Window(%d, %d) error = %v, want ErrInvalidWindow", tt.index, tt.size, err)
			}
			if len(w.Pages) != 0 {
				t.Errorf("Window(%d, %d) returned %d pages", tt.index, tt.size, len(w.Pages))
			}
		})
	}
}

func TestMemoryStore_DuplicatePages(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.WriteAll(ctx, "b1", makePages(3, 25)); err != nil {
		t.Fatal(err)
	}

	err := s.WriteAll(ctx, "b1", makePages(3, 25))
	if !errors.Is(err, ErrDuplicatePage) {
		t.Fatalf("second WriteAll error = %v, want ErrDuplicatePage", err)
	}
	if n, _ := s.Count(ctx, "b1"); n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}

	dup := []Page{{PageNum: 1}, {PageNum: 1}}
	if err := s.WriteAll(ctx, "b2", dup); !errors.Is(err, ErrDuplicatePage) {
		t.Errorf("WriteAll with repeated number error = %v", err)
	}
	if n, _ := s.Count(ctx, "b2"); n != 0 {
		t.Errorf("partial write stored %d pages", n)
	}
}

func TestMemoryStore_WriteErr(t *testing.T) {
	s := NewMemoryStore()
	s.WriteErr = errors.New("disk full")
	if err := s.WriteAll(context.Background(), "b1", makePages(2, 25)); err == nil {
		t.Fatal("expected injected error")
	}
	if s.Writes() != 1 {
		t.Errorf("Writes() = %d", s.Writes())
	}
	if len(s.Pages("b1")) != 0 {
		t.Error("pages stored despite error")
	}
}
