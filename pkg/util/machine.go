package util

import (
	"sync"

	"github.com/denisbrodbeck/machineid"
)

var (
	deviceID     string
	deviceIDOnce sync.Once
)

// GetDeviceID returns an app scoped, hashed machine id. The raw machine id
// never leaves the process. Returns "" when the platform exposes none.
// GetDeviceID 获取当前设备的应用级标识（哈希后的机器 ID）
func GetDeviceID(appID string) string {
	deviceIDOnce.Do(func() {
		id, err := machineid.ProtectedID(appID)
		if err != nil {
			return
		}
		if len(id) > 16 {
			id = id[:16]
		}
		deviceID = id
	})
	return deviceID
}
