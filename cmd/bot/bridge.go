package main

import "github.com/benjamonnguyen/breathe-go"

// HostBridge is the chat platform hosting a session view.
type HostBridge interface {
	// Ready tells the host the view can be shown.
	Ready()

	// Expand asks the host to give the view as much room as it can.
	Expand()

	Theme() breathe.Theme

	// OnThemeChange registers fn to be called whenever the host theme changes.
	OnThemeChange(fn func(breathe.Theme))
}

// noopBridge stands in when a view runs outside its host.
type noopBridge struct{}

func (noopBridge) Ready() {}

func (noopBridge) Expand() {}

func (noopBridge) Theme() breathe.Theme { return breathe.Theme{} }

func (noopBridge) OnThemeChange(func(breathe.Theme)) {}
