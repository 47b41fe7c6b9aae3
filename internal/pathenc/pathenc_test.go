package pathenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	got, err := Encode("/Users/alice/code/my-app")
	require.NoError(t, err)
	assert.Equal(t, "-Users-alice-code-my-app", got)
}

func TestEncodeEmpty(t *testing.T) {
	_, err := Encode("")
	require.Error(t, err)
}

func TestDecodeBestEffort_DriveLetter(t *testing.T) {
	got, err := DecodeBestEffort("C--Users-Destiny-AI-Tools-Projects-memory-nexus")
	require.NoError(t, err)
	assert.Equal(t, `C:\Users\Destiny\AI\Tools\Projects\memory\nexus`, got)
}

func TestDecodeBestEffort_Posix(t *testing.T) {
	got, err := DecodeBestEffort("-Users-alice-code-my-app")
	require.NoError(t, err)
	assert.Equal(t, "/Users/alice/code/my/app", got)
}

func TestProjectName(t *testing.T) {
	name, err := ProjectName(`C:\Users\Destiny\AI\Tools\Projects\memory\nexus`)
	require.NoError(t, err)
	assert.Equal(t, "nexus", name)
}

func TestProjectNameEmpty(t *testing.T) {
	_, err := ProjectName("")
	require.Error(t, err)
}

// Round-trip laws from spec §8: encode is deterministic but lossy;
// neither encode∘decode nor decode∘encode is identity.
func TestRoundTripIsLossy(t *testing.T) {
	original := "/Users/alice/code/my app-name"
	encoded, err := Encode(original)
	require.NoError(t, err)

	decoded, err := DecodeBestEffort(encoded)
	require.NoError(t, err)
	assert.NotEqual(t, original, decoded, "decode(encode(x)) must not be identity")

	reencoded, err := Encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, encoded, reencoded, "encode must be deterministic even over a decoded path")
}

func TestEncodeDeterministic(t *testing.T) {
	a, _ := Encode("/a/b:c d-e")
	b, _ := Encode("/a/b:c d-e")
	assert.Equal(t, a, b)
}
