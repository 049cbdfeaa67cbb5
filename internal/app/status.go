package app

import (
	"errors"

	"github.com/rostralabs/rostra/internal/presentation"
	"github.com/rostralabs/rostra/internal/rehearsal"
	"github.com/rostralabs/rostra/internal/synthesis"
	"github.com/rostralabs/rostra/pkg/provider/stt"
)

// StatusMessage maps an operation error to the user-facing notice shown in
// the practice view. Unknown errors fall through to a generic message; the
// full error stays in the logs.
func StatusMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCaptureBusy):
		return "이미 듣기 세션이 진행 중입니다. 먼저 종료해 주세요."
	case errors.Is(err, ErrPresentationNotFound):
		return "발표 자료를 찾을 수 없습니다."
	case errors.Is(err, ErrNoTranscript):
		return "비교할 최근 녹음이 없습니다. 먼저 한 번 말해 보세요."
	case errors.Is(err, ErrLLMUnavailable):
		return "스크립트 생성 기능이 설정되지 않았습니다. LLM 제공자를 확인해 주세요."
	case errors.Is(err, ErrSTTUnavailable):
		return "음성 인식 기능이 설정되지 않았습니다. STT 제공자를 확인해 주세요."
	case errors.Is(err, rehearsal.ErrSlideNotFound):
		return "해당 슬라이드가 없습니다."
	case errors.Is(err, rehearsal.ErrTakeNotFound):
		return "해당 테이크를 찾을 수 없습니다."
	case errors.Is(err, rehearsal.ErrInvalidMode):
		return "연습 모드는 초안(draft) 또는 최종(final)이어야 합니다."
	case errors.Is(err, synthesis.ErrNothingToSynthesize):
		return "이 슬라이드에는 아직 테이크가 없습니다. 먼저 연습을 녹음해 주세요."
	case errors.Is(err, synthesis.ErrNoCuratedScript):
		return "확정 대본이 아직 없습니다. 먼저 대본을 생성해 주세요."
	case errors.Is(err, synthesis.ErrEmptyUtterance):
		return "인식된 발화가 없습니다. 다시 말해 주세요."
	case errors.Is(err, synthesis.ErrNoScriptedSlides):
		return "확정 대본이 있는 슬라이드가 없습니다. 슬라이드별 대본을 먼저 만들어 주세요."
	case errors.Is(err, synthesis.ErrEmptyGeneration):
		return "스크립트 생성에 실패했습니다. 잠시 후 다시 시도해 주세요."
	case errors.Is(err, stt.ErrEmptyResult):
		return "음성이 인식되지 않았습니다. 다시 녹음해 주세요."
	case errors.Is(err, presentation.ErrNotFound):
		return "발표 자료를 찾을 수 없습니다."
	default:
		return "작업을 완료하지 못했습니다. 잠시 후 다시 시도해 주세요."
	}
}
