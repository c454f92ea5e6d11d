package sqlite

/*
#include <stdlib.h>
#include <sqlite3.h>
*/
import "C"
import "unsafe"

// Backup is an online backup operation copying pages from a source
// connection into a destination connection. The destination must not be
// used for anything else until the backup is closed.
//
// https://www.sqlite.org/backup.html
type Backup struct {
	cBackup *C.sqlite3_backup
	src     *Conn
	dst     *Conn
}

// Backup starts copying the srcName schema of this connection ("main" for
// the primary database) into the dstName schema of dst. Both connections
// count the backup as a live derived handle, so neither can close until
// the backup is closed.
func (conn *Conn) Backup(srcName string, dst *Conn, dstName string) (*Backup, error) {
	if dst == nil || dst == conn {
		return nil, usageErrorf("backup requires a distinct destination connection")
	}
	if conn.cDB == nil || dst.cDB == nil {
		return nil, usageErrorf("backup on a closed connection")
	}

	cSrcName := C.CString(srcName)
	defer C.free(unsafe.Pointer(cSrcName))
	cDstName := C.CString(dstName)
	defer C.free(unsafe.Pointer(cDstName))

	cBackup := C.sqlite3_backup_init(dst.cDB, cDstName, conn.cDB, cSrcName)
	if cBackup == nil {
		// The error is recorded on the destination connection.
		return nil, connError(dst.cDB, ResultCode(C.sqlite3_errcode(dst.cDB)))
	}

	conn.retain()
	dst.retain()
	return &Backup{cBackup: cBackup, src: conn, dst: dst}, nil
}

// Step copies up to nPages pages. Pass a negative count to copy everything
// remaining. It returns true while pages remain to be copied and false
// once the backup is complete.
func (b *Backup) Step(nPages int) (bool, error) {
	if b.cBackup == nil {
		return false, usageErrorf("step on a closed backup")
	}

	switch rc := ResultCode(C.sqlite3_backup_step(b.cBackup, C.int(nPages))); rc.Primary() {
	case ResultOK:
		return true, nil
	case ResultDone:
		return false, nil
	default:
		return false, connError(b.dst.cDB, rc)
	}
}

// Remaining returns the number of pages still to be copied after the last
// Step call.
func (b *Backup) Remaining() int {
	if b.cBackup == nil {
		return 0
	}
	return int(C.sqlite3_backup_remaining(b.cBackup))
}

// PageCount returns the total page count of the source database as of the
// last Step call.
func (b *Backup) PageCount() int {
	if b.cBackup == nil {
		return 0
	}
	return int(C.sqlite3_backup_pagecount(b.cBackup))
}

// Close releases the backup handle on both connections. Idempotent.
func (b *Backup) Close() error {
	if b.cBackup == nil {
		return nil
	}
	// sqlite3_backup_finish reports errors from prior steps, which Step
	// already surfaced; fresh errors cannot occur here.
	C.sqlite3_backup_finish(b.cBackup)
	b.cBackup = nil
	b.src.release()
	b.dst.release()
	return nil
}

// BackupTo copies the entire main database of the connection into dst in
// one shot, closing the backup on every path.
func (conn *Conn) BackupTo(dst *Conn) error {
	b, err := conn.Backup("main", dst, "main")
	if err != nil {
		return err
	}
	defer func() {
		_ = b.Close()
	}()

	for {
		more, err := b.Step(-1)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}
