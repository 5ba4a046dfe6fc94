package mdblocks

import (
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"
)

// Compile-time interface check.
var _ interface {
	Acquire() *Converter
	Release(*Converter)
	Size() int
	Close() error
} = (*ConverterPool)(nil)

// newMockPool returns a pool whose converters use mock PDF backends.
func newMockPool(n int) (*ConverterPool, *[]*mockPDFConverter) {
	var mu sync.Mutex
	mocks := &[]*mockPDFConverter{}
	pool := NewConverterPool(n)
	pool.newConv = func(opts ...Option) (*Converter, error) {
		conv, err := NewConverter(opts...)
		if err != nil {
			return nil, err
		}
		mock := &mockPDFConverter{}
		conv.pdfConverter = mock
		mu.Lock()
		*mocks = append(*mocks, mock)
		mu.Unlock()
		return conv, nil
	}
	return pool, mocks
}

type failingPDFConverter struct {
	mockPDFConverter
	closeErr error
}

func (f *failingPDFConverter) Close() error {
	return f.closeErr
}

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	gomaxprocs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{name: "explicit takes priority", workers: 4, want: 4},
		{name: "explicit=1 for sequential", workers: 1, want: 1},
		{name: "large explicit value kept", workers: 100, want: 100},
		{name: "zero uses auto calculation", workers: 0, want: min(max(gomaxprocs/cpuDivisor, MinPoolSize), MaxPoolSize)},
		{name: "negative uses auto calculation", workers: -3, want: min(max(gomaxprocs/cpuDivisor, MinPoolSize), MaxPoolSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ResolvePoolSize(tt.workers)
			if got != tt.want {
				t.Errorf("ResolvePoolSize(%d) = %d, want %d", tt.workers, got, tt.want)
			}
		})
	}
}

func TestConverterPool_Size(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct{ n, want int }{{3, 3}, {0, 1}, {-1, 1}} {
		if got := NewConverterPool(tt.n).Size(); got != tt.want {
			t.Errorf("NewConverterPool(%d).Size() = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestConverterPool_LazyCreation(t *testing.T) {
	t.Parallel()

	pool, mocks := newMockPool(2)
	if len(*mocks) != 0 {
		t.Fatalf("pool created %d converters before Acquire", len(*mocks))
	}

	a := pool.Acquire()
	pool.Release(a)
	b := pool.Acquire()
	if a != b {
		t.Error("released converter should be reused")
	}
	if len(*mocks) != 1 {
		t.Errorf("created %d converters, want 1", len(*mocks))
	}

	c := pool.Acquire()
	if c == nil || c == b {
		t.Error("second concurrent acquire should create a new converter")
	}
	if len(*mocks) != 2 {
		t.Errorf("created %d converters, want 2", len(*mocks))
	}

	pool.Release(b)
	pool.Release(c)
	if err := pool.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	for i, m := range *mocks {
		if !m.closed {
			t.Errorf("converter %d not closed", i)
		}
	}
}

func TestConverterPool_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	pool, mocks := newMockPool(2)
	defer pool.Close()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv := pool.Acquire()
			if conv == nil {
				t.Error("Acquire() returned nil")
				return
			}
			pool.Release(conv)
		}()
	}
	wg.Wait()

	if len(*mocks) > 2 {
		t.Errorf("created %d converters, want at most 2", len(*mocks))
	}
}

func TestConverterPool_InitError(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(1, WithLineSpacing(-1))
	if conv := pool.Acquire(); conv != nil {
		t.Fatal("Acquire() should return nil when the converter cannot be created")
	}
	if err := pool.InitErr(); !errors.Is(err, ErrInvalidLayout) {
		t.Errorf("InitErr() = %v, want ErrInvalidLayout", err)
	}
	if pool.created != 0 {
		t.Errorf("created = %d, want 0 after failed creation", pool.created)
	}
}

func TestConverterPool_Close(t *testing.T) {
	t.Parallel()

	t.Run("acquire after close returns nil", func(t *testing.T) {
		t.Parallel()

		pool, _ := newMockPool(1)
		if err := pool.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if conv := pool.Acquire(); conv != nil {
			t.Error("Acquire() after Close should return nil")
		}
	})

	t.Run("double close is safe", func(t *testing.T) {
		t.Parallel()

		pool, _ := newMockPool(1)
		pool.Acquire()
		if err := pool.Close(); err != nil {
			t.Fatalf("first Close() error = %v", err)
		}
		if err := pool.Close(); err != nil {
			t.Errorf("second Close() error = %v", err)
		}
	})

	t.Run("release after close is ignored", func(t *testing.T) {
		t.Parallel()

		pool, _ := newMockPool(1)
		conv := pool.Acquire()
		pool.Close()
		pool.Release(conv)
	})

	t.Run("release nil is a no-op", func(t *testing.T) {
		t.Parallel()

		pool, _ := newMockPool(1)
		defer pool.Close()
		pool.Release(nil)
		if conv := pool.Acquire(); conv == nil {
			t.Error("Acquire() should still create a converter")
		}
	})

	t.Run("close errors are aggregated", func(t *testing.T) {
		t.Parallel()

		pool := NewConverterPool(2)
		pool.newConv = func(opts ...Option) (*Converter, error) {
			conv, err := NewConverter(opts...)
			if err != nil {
				return nil, err
			}
			conv.pdfConverter = &failingPDFConverter{closeErr: errors.New("browser stuck")}
			return conv, nil
		}
		pool.Acquire()
		pool.Acquire()

		err := pool.Close()
		if err == nil {
			t.Fatal("Close() should report converter close errors")
		}
		if n := strings.Count(err.Error(), "browser stuck"); n != 2 {
			t.Errorf("Close() error = %v, want 2 aggregated errors", err)
		}
	})
}
