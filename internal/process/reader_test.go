package process

import (
	"errors"
	"io"
	"os"
	"testing"
	"time"
)

func TestLineScannerYieldsLinesInOrder(t *testing.T) {
	pr, pw, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer pr.Close()

	if _, err := pw.WriteString("alpha\nbeta\ngamma\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	pw.Close()

	sc := newLineScanner(pr)
	want := []string{"alpha", "beta", "gamma"}
	for _, expected := range want {
		line, ok, err := sc.next(time.Second)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok || line != expected {
			t.Fatalf("got (%q, %v), want %q", line, ok, expected)
		}
	}

	if _, _, err := sc.next(time.Second); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after all lines, got %v", err)
	}
}

func TestLineScannerReportsNoLineOnDeadline(t *testing.T) {
	pr, pw, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer pr.Close()
	defer pw.Close()

	sc := newLineScanner(pr)
	start := time.Now()
	line, ok, err := sc.next(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if ok {
		t.Fatalf("expected no line, got %q", line)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("deadline read took %s", elapsed)
	}
}

func TestLineScannerFlushesTrailingPartialLine(t *testing.T) {
	pr, pw, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer pr.Close()

	if _, err := pw.WriteString("complete\nno newline"); err != nil {
		t.Fatalf("write: %v", err)
	}
	pw.Close()

	sc := newLineScanner(pr)
	line, ok, err := sc.next(time.Second)
	if err != nil || !ok || line != "complete" {
		t.Fatalf("first line: got (%q, %v, %v)", line, ok, err)
	}
	line, ok, err = sc.next(time.Second)
	if err != nil || !ok || line != "no newline" {
		t.Fatalf("trailing partial: got (%q, %v, %v)", line, ok, err)
	}
	if _, _, err := sc.next(time.Second); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF at the end, got %v", err)
	}
}

func TestLineScannerStripsCarriageReturn(t *testing.T) {
	pr, pw, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer pr.Close()

	if _, err := pw.WriteString("dos line\r\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	pw.Close()

	sc := newLineScanner(pr)
	line, ok, err := sc.next(time.Second)
	if err != nil || !ok {
		t.Fatalf("next: (%v, %v)", ok, err)
	}
	if line != "dos line" {
		t.Fatalf("expected carriage return stripped, got %q", line)
	}
}
