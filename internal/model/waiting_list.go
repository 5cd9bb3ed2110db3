package model

import "time"

// WaitingListEntry queues a member for a lesson that was full at
// booking time.  Entries form a strict FIFO per lesson ordered by
// creation time (id breaks ties for entries created in the same
// instant).  An entry has no lifecycle states of its own: it is
// deleted when the member is promoted into a freed slot, or abandoned
// when promotion finds the member holds no usable ticket.
//
// Fields:
//  ID        – primary key identifier.
//  LessonID  – lesson the member is waiting for.
//  MemberID  – waiting member.
//  CreatedAt – enqueue timestamp; defines FIFO order.
type WaitingListEntry struct {
    ID        uint64    // waiting_list.id
    LessonID  uint64    // waiting_list.lesson_id
    MemberID  uint64    // waiting_list.member_id
    CreatedAt time.Time // waiting_list.created_at
}
