package request

import "fmt"

const maxInstructionLength = 16384

type StartConversationRequest struct {
	SystemInstruction string `json:"system_instruction,omitempty"`
	CourseID          string `json:"course_id,omitempty"`
	TopicID           string `json:"topic_id,omitempty"`
	ChatSessionID     string `json:"chat_session_id,omitempty"`
	StudySessionID    string `json:"study_session_id,omitempty"`
}

func (r *StartConversationRequest) Validate() error {
	if len(r.SystemInstruction) > maxInstructionLength {
		return fmt.Errorf("system_instruction exceeds %d characters", maxInstructionLength)
	}
	return nil
}
