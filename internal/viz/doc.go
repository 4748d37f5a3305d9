// Package viz renders solve results in the terminal.
//
//   - [Summary]: lipgloss panel with status, iterations, parameters and the
//     residual profile of a solve
//   - [Plot]: asciigraph chart of one state or quadrature component,
//     resampled on a uniform grid
//   - Theme selection with 3 built-in color schemes
package viz
