package variants

import (
	"errors"
	"fmt"
	"testing"
)

func TestIncompatibleSelectionError(t *testing.T) {
	t.Run("Error message formatting", func(t *testing.T) {
		err := NewIncompatibleSelectionError("L", "red", "size is not available")
		expected := `incompatible selection: size="L", color="red", reason=size is not available`
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("errors.Is detection through wrapping", func(t *testing.T) {
		err := fmt.Errorf("add to cart: %w", NewIncompatibleSelectionError("", "", "size is required"))
		if !errors.Is(err, &IncompatibleSelectionError{}) {
			t.Error("errors.Is should detect IncompatibleSelectionError")
		}
		if !IsIncompatibleSelectionError(err) {
			t.Error("IsIncompatibleSelectionError should return true")
		}
	})
}

func TestInsufficientStockError(t *testing.T) {
	err := NewInsufficientStockError("M", "black", 4, 2)
	expected := `insufficient stock: size="M", color="black", requested=4, available=2`
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}

	var ise *InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatal("errors.As should convert to InsufficientStockError")
	}
	if ise.Requested != 4 || ise.Available != 2 {
		t.Errorf("error fields not correctly preserved")
	}
}

func TestInvalidQuantityError(t *testing.T) {
	err := NewInvalidQuantityError(0)
	if err.Error() != "invalid quantity: 0, must be at least 1" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !IsInvalidQuantityError(err) {
		t.Error("IsInvalidQuantityError should return true")
	}
}

func TestErrorTypeDiscrimination(t *testing.T) {
	incompatible := NewIncompatibleSelectionError("S", "", "color is required")
	insufficient := NewInsufficientStockError("S", "red", 3, 1)
	invalid := NewInvalidQuantityError(-1)

	if IsInsufficientStockError(incompatible) || IsInvalidQuantityError(incompatible) {
		t.Error("IncompatibleSelectionError misidentified")
	}
	if IsIncompatibleSelectionError(insufficient) || IsInvalidQuantityError(insufficient) {
		t.Error("InsufficientStockError misidentified")
	}
	if IsIncompatibleSelectionError(invalid) || IsInsufficientStockError(invalid) {
		t.Error("InvalidQuantityError misidentified")
	}
}

func TestMalformedFieldStaysInternal(t *testing.T) {
	_, err := decodeArray("sizes", []byte(`"not, json"`))
	var mfe *malformedFieldError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected malformedFieldError, got %v", err)
	}
	if mfe.Field != "sizes" {
		t.Errorf("expected field sizes, got %s", mfe.Field)
	}

	if _, err := decodeArray("sizes", nil); !errors.Is(err, errAbsent) {
		t.Errorf("expected errAbsent for missing field, got %v", err)
	}
}
