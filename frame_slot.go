package tonelock

import "sync"

// FrameSlot 单槽覆盖式交接区
// 生产者 (音频回调/串口/回放) 写入最新一帧并覆盖旧帧，消费者每个周期读取当前帧，
// 从不阻塞等待；消费者处理慢时直接跳到最新帧，不排队
type FrameSlot struct {
	mu    sync.Mutex
	frame []float64
	seq   uint64
}

// NewFrameSlot 创建空的交接区
func NewFrameSlot() *FrameSlot {
	return &FrameSlot{}
}

// Publish 拷贝并覆盖当前帧，返回新的序号
func (s *FrameSlot) Publish(frame []float64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cap(s.frame) < len(frame) {
		s.frame = make([]float64, len(frame))
	}
	s.frame = s.frame[:len(frame)]
	copy(s.frame, frame)
	s.seq++
	return s.seq
}

// Latest 返回当前帧的拷贝和序号，还没有任何帧时 ok 为 false
func (s *FrameSlot) Latest() (frame []float64, seq uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seq == 0 {
		return nil, 0, false
	}
	frame = make([]float64, len(s.frame))
	copy(frame, s.frame)
	return frame, s.seq, true
}

// Seq 当前序号 (已发布的帧数)
func (s *FrameSlot) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// FrameAssembler 把驱动回调送来的任意长度数据拼成固定长度的帧，
// 每凑满一帧就发布到 FrameSlot
type FrameAssembler struct {
	size int
	buf  []float64
	slot *FrameSlot
}

// NewFrameAssembler 创建拼帧器
func NewFrameAssembler(size int, slot *FrameSlot) *FrameAssembler {
	return &FrameAssembler{
		size: size,
		buf:  make([]float64, 0, size),
		slot: slot,
	}
}

// Write 追加样本，返回本次发布的帧数
func (a *FrameAssembler) Write(samples []float32) int {
	published := 0
	for _, v := range samples {
		a.buf = append(a.buf, float64(v))
		if len(a.buf) == a.size {
			a.slot.Publish(a.buf)
			a.buf = a.buf[:0]
			published++
		}
	}
	return published
}

// Pending 尚未凑满一帧的样本数
func (a *FrameAssembler) Pending() int {
	return len(a.buf)
}
