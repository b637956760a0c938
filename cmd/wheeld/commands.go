package main

import "fmt"

// Command represents a side effect requested by the reducer and executed by
// the effects layer.
type Command interface {
	commandMarker()
	String() string
}

// CmdPublishStateSnapshot delivers a reducer-built snapshot to a requester.
type CmdPublishStateSnapshot struct {
	Reply    chan<- StateSnapshot
	Snapshot StateSnapshot
}

func (CmdPublishStateSnapshot) commandMarker() {}
func (CmdPublishStateSnapshot) String() string { return "CmdPublishStateSnapshot()" }

// CmdRunSelectHook runs hooks.on_select for a newly committed selection.
type CmdRunSelectHook struct {
	Index int
	Icon  string
}

func (CmdRunSelectHook) commandMarker() {}
func (c CmdRunSelectHook) String() string {
	return fmt.Sprintf("CmdRunSelectHook(index=%d, icon=%q)", c.Index, c.Icon)
}
