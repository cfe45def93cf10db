package badger

import "fmt"

// makeCheckpointKey generates a key for source partition checkpoints.
func makeCheckpointKey(partition string) []byte {
	return []byte(fmt.Sprintf("%s:chkpt", partition))
}
