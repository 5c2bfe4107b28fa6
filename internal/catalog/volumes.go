package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"volscribe/internal/artifacts"
)

// ParseVolumeMap decodes the API's "fid" field. A JSON object maps volume
// numbers to external media ids; any other non-empty value is the single
// media id of volume 1.
func ParseVolumeMap(fid string) ([]artifacts.Volume, error) {
	fid = strings.TrimSpace(fid)
	if fid == "" {
		return nil, nil
	}
	if !strings.HasPrefix(fid, `{"`) || !strings.HasSuffix(fid, `"}`) {
		return []artifacts.Volume{{ExternalID: fid, Number: 1}}, nil
	}

	var mapping map[string]string
	if err := json.Unmarshal([]byte(fid), &mapping); err != nil {
		return nil, fmt.Errorf("decode volume map: %w", err)
	}
	volumes := make([]artifacts.Volume, 0, len(mapping))
	for key, id := range mapping {
		number, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || number < 1 {
			return nil, fmt.Errorf("volume map: invalid volume number %q", key)
		}
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("volume map: volume %d has no media id", number)
		}
		volumes = append(volumes, artifacts.Volume{ExternalID: id, Number: number})
	}
	sortVolumes(volumes)
	return volumes, nil
}

// flexibleID accepts ids encoded as JSON numbers or strings.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("collection id: %w", err)
	}
	*f = flexibleID(n.String())
	return nil
}
