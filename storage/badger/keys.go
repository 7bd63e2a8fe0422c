package badger

import "fmt"

// Key prefixes for different data types
const (
	storeMetaPrefix = "stomet"
	fileDataPrefix  = "fildat"
)

// makeStoreKey generates a key for a store's metadata record.
func makeStoreKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", storeMetaPrefix, name))
}

// makeFileDataKey generates a key for an uploaded file's raw bytes.
// Lengths are framed into the key so store/file name pairs cannot collide.
func makeFileDataKey(storeName, filename string) []byte {
	return []byte(fmt.Sprintf("%s:%d:%s:%s", fileDataPrefix, len(storeName), storeName, filename))
}

// makeFileDataScanPrefix generates the iteration prefix for every file of a
// store.
func makeFileDataScanPrefix(storeName string) []byte {
	return []byte(fmt.Sprintf("%s:%d:%s:", fileDataPrefix, len(storeName), storeName))
}
