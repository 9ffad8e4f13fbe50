package ide

import "github.com/corey/idebridge/internal/ports"

// SelectLocationIDs returns the IDs of the non-scope occurrences in file that
// the cursor column touches, in the file's iteration order. A token spanning
// columns [s, e] matches s <= column <= e+1, so a cursor placed right after
// the last character still selects it.
func SelectLocationIDs(file *ports.TokenLocationFile, column int) []uint64 {
	var ids []uint64
	file.ForEachStartLocation(func(start *ports.TokenLocation) {
		if start.IsScope() {
			return
		}
		end := start.EndLocation()
		if end == nil {
			return
		}
		if start.Column <= column && end.Column+1 >= column {
			ids = append(ids, start.ID)
		}
	})
	return ids
}
