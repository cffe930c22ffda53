package pdftext

import (
	"errors"
	"testing"

	"github.com/ananthcjayan12/pdf-print-brady/internal/entity"
)

func TestNewEmptyInput(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, entity.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	if _, err := New([]byte{}); !errors.Is(err, entity.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestNewGarbageInput(t *testing.T) {
	inputs := [][]byte{
		[]byte("this is not a pdf"),
		[]byte("%PDF-1.4\ntruncated"),
		{0x00, 0x01, 0x02, 0x03},
	}
	for _, in := range inputs {
		if _, err := New(in); !errors.Is(err, entity.ErrUnreadablePDF) {
			t.Errorf("New(%q) err = %v, want ErrUnreadablePDF", in, err)
		}
	}
}

func TestExtractPageGarbageInput(t *testing.T) {
	if _, err := ExtractPage([]byte("not a pdf"), 1); err == nil {
		t.Error("expected an error for non-PDF input")
	}
}
