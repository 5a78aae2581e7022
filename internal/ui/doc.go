// package ui implements the interactive terminal layer: the per-track
// decision prompt and the alternative picker used for low-confidence
// resolutions. It is the only package that talks to a terminal; everything
// else goes through the decision callback boundary.
package ui
