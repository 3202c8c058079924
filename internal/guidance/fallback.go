package guidance

import (
	"fmt"

	"github.com/sakshampandey1901/Cite/internal/types"
)

// FallbackResponse is the fixed safe response returned when
// generation cannot be validated. It states insufficient grounding
// explicitly and carries no generated content.
func FallbackResponse(mode types.TaskMode) string {
	return fmt.Sprintf(`## %s Guidance

### 1. Likely Next Move
Unable to generate specific guidance at this time.

### 2. Supporting Rationale
[No relevant source found - insufficient context in document corpus]

### 3. Alternative Paths
Consider uploading additional documents related to your topic for more targeted guidance.

### 4. Cautions or Limitations
The system could not produce guidance that meets its grounding contract. This may indicate insufficient relevant documents in your corpus or a need for more specific context in your query.`, string(mode))
}
