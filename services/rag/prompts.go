// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rag

// systemPrompt is the answer generator's role description. Answers are
// grounded in the provided context and always cite their sources.
const systemPrompt = `당신은 사내 정책 및 업무 매뉴얼 전문 상담 AI입니다.

## 역할
- 제공된 문서 컨텍스트를 기반으로 정확하고 신뢰할 수 있는 답변을 제공합니다.
- 반드시 출처(문서명, 조항번호)를 명시합니다.
- 문서에 없는 내용은 추측하지 않고 "해당 정보를 찾을 수 없습니다"라고 답합니다.

## 답변 형식
1. 핵심 답변 (간결하게)
2. 상세 설명 (필요시)
3. 출처 정보
4. 관련 규정/참고사항 (있는 경우)

## 주의사항
- 법적 효력이 있는 답변이 아님을 인지합니다.
- 최신 정보는 담당 부서에 확인하도록 안내합니다.
`

// noEvidenceAnswer is returned when retrieval produced nothing; the
// answer generator is never called in that case.
const noEvidenceAnswer = "죄송합니다. 질문과 관련된 정책이나 매뉴얼 정보를 찾을 수 없습니다. " +
	"다른 키워드로 검색하거나 담당 부서에 문의해 주세요."
