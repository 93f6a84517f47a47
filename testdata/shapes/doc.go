// Package shapes models plane figures.
//
// It exists to exercise goexplain against a small, known module.
package shapes
