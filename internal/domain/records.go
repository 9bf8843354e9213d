package domain

// RecordLog is the ordered list of record ids a transaction produced.
// The last element is the active record.
type RecordLog []string

func (l RecordLog) Len() int { return len(l) }

func (l RecordLog) Empty() bool { return len(l) == 0 }

// Last returns the tail id.
func (l RecordLog) Last() (string, bool) {
	if len(l) == 0 {
		return "", false
	}
	return l[len(l)-1], true
}

func (l *RecordLog) Append(id string) {
	*l = append(*l, id)
}

// ReplaceLast overwrites the tail, appending when the log is empty.
func (l *RecordLog) ReplaceLast(id string) {
	if len(*l) == 0 {
		*l = append(*l, id)
		return
	}
	(*l)[len(*l)-1] = id
}

// PopLast drops the tail.
func (l *RecordLog) PopLast() (string, bool) {
	if len(*l) == 0 {
		return "", false
	}
	last := (*l)[len(*l)-1]
	*l = (*l)[:len(*l)-1]
	return last, true
}
