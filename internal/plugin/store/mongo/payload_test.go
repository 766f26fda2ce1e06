package mongo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitFragments_SingleElement(t *testing.T) {
	payload := `<message from="a@x" to="b@x" type="chat"><body>hi</body></message>`
	require.Equal(t, []string{payload}, splitFragments(payload))
}

func TestSplitFragments_MultipleTopLevelElements(t *testing.T) {
	frags := splitFragments(`<message><body>one</body></message><message><body>two</body></message>`)
	require.Equal(t, []string{
		"<message><body>one</body></message>",
		"<message><body>two</body></message>",
	}, frags)
}

func TestSplitFragments_RepeatedFragmentsAreKept(t *testing.T) {
	frags := splitFragments(`<message><body>dup</body></message><message><body>dup</body></message>`)
	require.Len(t, frags, 2)
	require.Equal(t, frags[0], frags[1])
}

func TestSplitFragments_SelfClosing(t *testing.T) {
	frags := splitFragments(`<presence/><message><body>hi</body></message>`)
	require.Equal(t, []string{"<presence/>", "<message><body>hi</body></message>"}, frags)
}

func TestSplitFragments_UnparseablePayloadReturnedWhole(t *testing.T) {
	require.Equal(t, []string{"not xml at all"}, splitFragments("not xml at all"))
}

func TestSplitFragments_Empty(t *testing.T) {
	require.Empty(t, splitFragments(""))
	require.Empty(t, splitFragments("   "))
}

func TestPayloadType(t *testing.T) {
	require.Equal(t, "chat", payloadType(`<message type="chat"><body>hi</body></message>`))
	require.Equal(t, "", payloadType(`<message><body>hi</body></message>`))
	require.Equal(t, "", payloadType(""))
}
