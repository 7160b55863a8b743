// Package model holds the plain data types shared by the board, overlay,
// solve and present packages: coordinates, letter paths, solutions and the
// request sent to the solving service.
package model
