package diagcache

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/vjranagit/omfseries/pkg/diag"
)

// Codec compresses decoded diag tables column by column
type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// zstd level per cache compression level 1 (fastest) to 4 (best)
var encoderLevels = [...]zstd.EncoderLevel{
	zstd.SpeedFastest,
	zstd.SpeedDefault,
	zstd.SpeedBetterCompression,
	zstd.SpeedBestCompression,
}

// NewCodec creates a codec for a compression level from 1 to 4
func NewCodec(level int) (*Codec, error) {
	if level < 1 || level > len(encoderLevels) {
		return nil, fmt.Errorf("compression level %d out of range 1-%d", level, len(encoderLevels))
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encoderLevels[level-1]))
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	return &Codec{encoder: encoder, decoder: decoder}, nil
}

type tablePayload struct {
	Count    int
	Stations []byte
	ObsTypes []byte
	Values   []byte
}

// Encode serializes a table
func (c *Codec) Encode(t *diag.Table) ([]byte, error) {
	n := t.Len()
	stations := make([]string, n)
	obsTypes := make([]int64, n)
	values := make([]float64, n)
	for i, row := range t.Rows {
		if strings.ContainsRune(row.StationID, '\n') {
			return nil, fmt.Errorf("station id %q contains a newline", row.StationID)
		}
		stations[i] = row.StationID
		obsTypes[i] = int64(row.ObsType)
		values[i] = row.OmfAdjusted
	}

	payload := tablePayload{Count: n}
	if n > 0 {
		payload.Stations = c.encoder.EncodeAll([]byte(strings.Join(stations, "\n")), nil)

		var err error
		if payload.ObsTypes, err = c.CompressObsTypes(obsTypes); err != nil {
			return nil, fmt.Errorf("failed to compress obs types: %w", err)
		}
		if payload.Values, err = c.CompressValues(values); err != nil {
			return nil, fmt.Errorf("failed to compress values: %w", err)
		}
	}

	return json.Marshal(payload)
}

// Decode reverses Encode
func (c *Codec) Decode(data []byte) (*diag.Table, error) {
	var payload tablePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.Count == 0 {
		return &diag.Table{}, nil
	}

	raw, err := c.decoder.DecodeAll(payload.Stations, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress stations: %w", err)
	}
	stations := strings.Split(string(raw), "\n")
	if len(stations) != payload.Count {
		return nil, fmt.Errorf("station count %d, want %d", len(stations), payload.Count)
	}

	obsTypes, err := c.DecompressObsTypes(payload.ObsTypes, payload.Count)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress obs types: %w", err)
	}
	values, err := c.DecompressValues(payload.Values, payload.Count)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress values: %w", err)
	}

	rows := make([]diag.Observation, payload.Count)
	for i := range rows {
		rows[i] = diag.Observation{
			StationID:   stations[i],
			ObsType:     int(obsTypes[i]),
			OmfAdjusted: values[i],
		}
	}
	return &diag.Table{Rows: rows}, nil
}

// CompressObsTypes delta-encodes the obs type column and compresses it.
// Diag files group rows by type, so most deltas are zero.
func (c *Codec) CompressObsTypes(types []int64) ([]byte, error) {
	if len(types) == 0 {
		return nil, nil
	}

	buf := new(bytes.Buffer)
	var prev int64
	for _, t := range types {
		if err := binary.Write(buf, binary.LittleEndian, t-prev); err != nil {
			return nil, err
		}
		prev = t
	}

	return c.encoder.EncodeAll(buf.Bytes(), make([]byte, 0, buf.Len())), nil
}

// DecompressObsTypes reverses CompressObsTypes
func (c *Codec) DecompressObsTypes(data []byte, count int) ([]int64, error) {
	if len(data) == 0 {
		return nil, nil
	}

	decompressed, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}

	buf := bytes.NewReader(decompressed)
	types := make([]int64, count)
	var prev int64
	for i := 0; i < count; i++ {
		var delta int64
		if err := binary.Read(buf, binary.LittleEndian, &delta); err != nil {
			return nil, err
		}
		types[i] = prev + delta
		prev = types[i]
	}

	return types, nil
}

// CompressValues stores the omf column as each value's bits XORed with the
// previous row's. Neighbouring rows of one obs type share sign and exponent,
// so the high bytes mostly cancel. NaN bit patterns survive unchanged.
func (c *Codec) CompressValues(values []float64) ([]byte, error) {
	if len(values) == 0 {
		return nil, nil
	}

	raw := make([]byte, 0, 8*len(values))
	var prev uint64
	for _, v := range values {
		bits := math.Float64bits(v)
		raw = binary.LittleEndian.AppendUint64(raw, bits^prev)
		prev = bits
	}
	return c.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// DecompressValues reverses CompressValues; the column must hold exactly count values
func (c *Codec) DecompressValues(data []byte, count int) ([]float64, error) {
	if len(data) == 0 {
		if count != 0 {
			return nil, fmt.Errorf("empty value column, want %d values", count)
		}
		return nil, nil
	}

	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}
	if len(raw) != 8*count {
		return nil, fmt.Errorf("value column holds %d bytes, want %d", len(raw), 8*count)
	}

	values := make([]float64, count)
	var prev uint64
	for i := range values {
		bits := binary.LittleEndian.Uint64(raw[8*i:]) ^ prev
		values[i] = math.Float64frombits(bits)
		prev = bits
	}
	return values, nil
}

// Close releases the zstd encoder and decoder
func (c *Codec) Close() {
	c.encoder.Close()
	c.decoder.Close()
}
