package db

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(gorm.ErrRecordNotFound) {
		t.Fatal("bare sentinel not recognized")
	}
	if !IsNotFound(fmt.Errorf("lookup user: %w", gorm.ErrRecordNotFound)) {
		t.Fatal("wrapped sentinel not recognized")
	}
	if IsNotFound(errors.New("connection refused")) {
		t.Fatal("unrelated error misclassified")
	}
	if IsNotFound(nil) {
		t.Fatal("nil misclassified")
	}
}
