package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatcher_RendersStream(t *testing.T) {
	var out bytes.Buffer
	w := newWatcher(&out)

	w.handle([]byte(`{"type":"state_init","data":{"position":1,"selected":1,"phase":"idle","locked":false,"cycling":true,
		"slots":[{"index":0,"icon":"music","state":"normal"},{"index":1,"icon":"radio","state":"normal"},
		{"index":2,"icon":"","state":"disabled"},{"index":3,"icon":"tv","state":"hidden"}],"appearance":{}}}`))
	w.handle([]byte(`{"type":"rotation_started","data":{"previous_index":1}}`))
	w.handle([]byte(`{"type":"rotation_updated","data":{"position":1.75}}`))
	w.handle([]byte(`{"type":"selection_ended","data":{"index":2,"icon":""}}`))
	w.handle([]byte(`{"type":"frame","data":{"position":2,"phase":"idle"}}`))
	w.handle([]byte(`{"type":"rotation_lock_changed","data":{"locked":true}}`))
	w.handle([]byte(`{"type":"icon_state_changed","data":{"index":3,"state":"normal"}}`))

	want := "" +
		"[INIT]   1.00 | music [radio] (_) ~\n" +
		"[START] from 1\n" +
		"[DRAG]   1.75 | music [radio] <(_)> ~\n" +
		"[SELECT] 2 \"\"\n" +
		"[FRAME] idle       2.00 | music radio [(_)] ~\n" +
		"[LOCK] true\n" +
		"[STATE] 3 normal\n"
	assert.Equal(t, want, out.String())
	assert.Equal(t, "  2.00 | music radio [(_)] tv | locked", w.ring())
}

func TestWatcher_IconsChangedResets(t *testing.T) {
	var out bytes.Buffer
	w := newWatcher(&out)

	w.handle([]byte(`{"type":"icons_changed","data":{"icons":["a","b"]}}`))
	assert.Equal(t, "[ICONS]   0.00 | [a] b\n", out.String())

	out.Reset()
	w.handle([]byte(`{"type":"icons_changed","data":{"icons":[]}}`))
	assert.Equal(t, "[ICONS] (empty)\n", out.String())
}

func TestWatcher_UnknownAndBadMessages(t *testing.T) {
	var out bytes.Buffer
	w := newWatcher(&out)

	w.handle([]byte(`not json`))
	assert.Equal(t, "[TEXT] not json\n", out.String())

	out.Reset()
	w.handle([]byte(`{"type":"frame","data":{"position":"far"}}`))
	assert.Contains(t, out.String(), "[ERROR] bad frame payload")

	out.Reset()
	w.handle([]byte(`{"type":"mystery"}`))
	assert.Equal(t, "[MESSAGE]\n{\n  \"type\": \"mystery\"\n}\n", out.String())
}
