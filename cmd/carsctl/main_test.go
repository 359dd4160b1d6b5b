package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_printMessage(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, printMessage(buf, "abc", `{"make":"Saab"}`))
	require.JSONEq(t, `{"id":"abc","car detail":{"make":"Saab"}}`, buf.String())

	buf.Reset()
	require.NoError(t, printMessage(buf, "abc", `plain text`))
	require.Equal(t, "abc\tplain text\n", buf.String())
}
