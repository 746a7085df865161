package scene

import (
	"encoding/binary"
	"math"
	"time"
)

// BipPCM synthesises a sine tone as 16-bit little-endian stereo PCM, the
// format ebiten's audio players take. volume is in [0, 1].
func BipPCM(sampleRate int, freq float64, d time.Duration, volume float64) []byte {
	volume = math.Max(0, math.Min(1, volume))
	n := int(math.Round(float64(sampleRate) * d.Seconds()))
	buf := make([]byte, n*4)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		v := int16(math.Sin(2*math.Pi*freq*t) * math.MaxInt16 * volume)
		binary.LittleEndian.PutUint16(buf[i*4:], uint16(v))
		binary.LittleEndian.PutUint16(buf[i*4+2:], uint16(v))
	}
	return buf
}
