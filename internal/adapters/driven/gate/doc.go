// Package gate provides non-graphical DecisionGate implementations:
// an interactive console prompt, a YAML-scripted gate for unattended runs
// and an auto-accept gate. The full-screen gate lives in the tui package.
package gate
