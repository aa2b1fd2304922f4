package series

import (
	"fmt"
	"time"

	"github.com/vjranagit/omfseries/pkg/types"
)

// BuildPaths returns one candidate diag file per timestamp, in order:
//
//	{root}/RTMA_CONUS.{YYYYMMDD}/{HH}/diag_conv_{var}_{anl|ges}.{YYYYMMDD}{HH}.nc4.gz
//
// The filesystem is not touched; callers expand ModeBoth into two calls.
func BuildPaths(root, variable string, label types.Label, timestamps []time.Time) []string {
	paths := make([]string, len(timestamps))
	for i, ts := range timestamps {
		paths[i] = BuildPath(root, variable, label, ts)
	}
	return paths
}

// BuildPath formats the diag path for a single hour
func BuildPath(root, variable string, label types.Label, ts time.Time) string {
	ts = ts.UTC()
	day := ts.Format("20060102")
	hour := ts.Format("15")
	return fmt.Sprintf("%s/RTMA_CONUS.%s/%s/diag_conv_%s_%s.%s%s.nc4.gz",
		root, day, hour, variable, label, day, hour)
}
