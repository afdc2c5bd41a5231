package domain

// Placeholders substituted into the answer template.
const (
	PlaceholderContext  = "{context}"
	PlaceholderQuestion = "{question}"
)

// DefaultAnswerTemplate instructs the model to answer in Portuguese using only
// the supplied excerpts, and to say so when they are insufficient.
const DefaultAnswerTemplate = `Você é um assistente especializado no Regulamento Pedagógico da ESTG (Escola Superior de Tecnologia e Gestão).
Responda à pergunta em PORTUGUÊS com base nas informações fornecidas abaixo.
Se a informação não estiver presente nos documentos fornecidos, diga que não tem informações suficientes para responder.

Contexto:
{context}

Pergunta: {question}

Resposta em português:`

// DefaultAnswerJSONTemplate is appended to the answer template when the model
// is asked to name the excerpts it used.
const DefaultAnswerJSONTemplate = `Responda apenas com um objeto JSON numa única linha, no formato {"answer": "<resposta>", "sources": [<números dos excertos usados>]}.`
