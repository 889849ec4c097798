package utils

//PadSequence makes sure given sequence has the wanted length. In case it's longer, only the first 'length' rows are kept.
//In case it's shorter, it's padded by repeating the last row. In case given sequence is shorter than minLength - it returns nil (invalid data).
//The returned sequence never shares rows with the given one.
func PadSequence(seq [][]float64, length, minLength int) [][]float64 {
	if len(seq) == 0 || len(seq) < minLength {
		return nil
	}

	if len(seq) > length {
		seq = seq[:length]
	}

	padded := make([][]float64, 0, length)
	for _, row := range seq {
		padded = append(padded, CopyRow(row))
	}

	for len(padded) < length {
		padded = append(padded, CopyRow(seq[len(seq)-1]))
	}

	return padded
}

//ZeroSequence returns a length x width sequence full of zeroes
func ZeroSequence(length, width int) [][]float64 {
	seq := make([][]float64, length)
	for i := range seq {
		seq[i] = make([]float64, width)
	}

	return seq
}

//CopyRow returns a copy of given row
func CopyRow(row []float64) []float64 {
	c := make([]float64, len(row))
	copy(c, row)
	return c
}
